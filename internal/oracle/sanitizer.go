package oracle

import (
	"fmt"
	"regexp"
)

// Query tool output can contain key material when the operator points the
// dashboard at a wallet-enabled CLI profile. Everything that reaches a log
// line goes through Sanitize first.
var (
	privKeyPattern  = regexp.MustCompile(`suiprivkey[a-zA-Z0-9]+`)
	addressPattern  = regexp.MustCompile(`0x[a-fA-F0-9]{64}`)
	mnemonicPattern = regexp.MustCompile(`\b([a-z]+\s+){11,23}[a-z]+\b`)
)

// Sanitize redacts private keys and mnemonics from tool output and shortens
// full-length addresses to their first and last four hex chars.
func Sanitize(text string) string {
	out := privKeyPattern.ReplaceAllString(text, "****")
	out = addressPattern.ReplaceAllStringFunc(out, func(addr string) string {
		return fmt.Sprintf("0x%s...%s", addr[2:6], addr[len(addr)-4:])
	})
	out = mnemonicPattern.ReplaceAllString(out, "[MNEMONIC]")
	return out
}

// MaskAddress shortens one address for log fields. Short inputs pass through.
func MaskAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return fmt.Sprintf("0x%s...%s", addr[2:6], addr[len(addr)-4:])
}

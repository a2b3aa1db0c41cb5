package oracle

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"

	"github.com/suidash/backend/pkg/types"
)

// The oracle's response shapes have drifted across node releases. Each parse
// helper walks an ordered chain of known variants and returns the first
// match; nothing here touches the cache layer.

const mistPerSui = 1_000_000_000

// ParseBalanceResult extracts a MIST amount from a suix_getBalance result.
// Variants, in order: current object with totalBalance, legacy object with
// balance, coin-object array (summed), bare quantity string.
func ParseBalanceResult(raw json.RawMessage) (*big.Int, error) {
	// Current shape: {"coinType": "...", "totalBalance": "12500000000"}
	var current struct {
		TotalBalance string `json:"totalBalance"`
	}
	if err := json.Unmarshal(raw, &current); err == nil && current.TotalBalance != "" {
		return parseAmount(current.TotalBalance)
	}

	// Legacy shape: {"balance": "12500000000"}
	var legacy struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.Balance != "" {
		return parseAmount(legacy.Balance)
	}

	// Coin-object array: [{"balance": "..."}, ...], summed.
	var coins []struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(raw, &coins); err == nil && len(coins) > 0 {
		total := new(big.Int)
		for _, coin := range coins {
			amount, err := parseAmount(coin.Balance)
			if err != nil {
				return nil, err
			}
			total.Add(total, amount)
		}
		return total, nil
	}

	// Bare quantity: "12500000000" or "0x2e90edd00".
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil && bare != "" {
		return parseAmount(bare)
	}

	return nil, fmt.Errorf("balance result %q: %w", truncate(string(raw), 120), types.ErrOracleMalformed)
}

// parseAmount reads a decimal or hex (0x-prefixed) quantity string.
func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount: %w", types.ErrOracleMalformed)
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := hexutil.DecodeBig(s)
		if err != nil {
			return nil, fmt.Errorf("hex amount %q: %w", s, types.ErrOracleMalformed)
		}
		return v, nil
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("decimal amount %q: %w", s, types.ErrOracleMalformed)
	}
	return v, nil
}

// FormatMist renders a MIST amount as a SUI decimal string with four
// fractional digits, e.g. 12500000000 -> "12.5000".
func FormatMist(mist *big.Int) string {
	whole, remainder := new(big.Int).QuoRem(mist, big.NewInt(mistPerSui), new(big.Int))
	// Four decimals: each unit is 1e5 MIST.
	frac := new(big.Int).Quo(remainder, big.NewInt(mistPerSui/10_000))
	return fmt.Sprintf("%s.%04d", whole.String(), frac.Int64())
}

// ParseActivityResult extracts activity counters from query tool output.
// Variants, in order: current JSON object, legacy field names, single-element
// JSON array, line-oriented text.
func ParseActivityResult(output []byte) (types.ActivityCounters, error) {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return types.ActivityCounters{}, fmt.Errorf("empty activity output: %w", types.ErrOracleMalformed)
	}

	// Current shape: {"txCount": 42, "contractCount": 3}
	var current struct {
		TxCount       *int `json:"txCount"`
		ContractCount *int `json:"contractCount"`
	}
	if err := json.Unmarshal([]byte(trimmed), &current); err == nil && current.TxCount != nil {
		counters := types.ActivityCounters{TxCount: *current.TxCount}
		if current.ContractCount != nil {
			counters.ContractCount = *current.ContractCount
		}
		return counters, nil
	}

	// Legacy shape: {"transactions": 42, "deployedContracts": 3}
	var legacy struct {
		Transactions      *int `json:"transactions"`
		DeployedContracts *int `json:"deployedContracts"`
	}
	if err := json.Unmarshal([]byte(trimmed), &legacy); err == nil && legacy.Transactions != nil {
		counters := types.ActivityCounters{TxCount: *legacy.Transactions}
		if legacy.DeployedContracts != nil {
			counters.ContractCount = *legacy.DeployedContracts
		}
		return counters, nil
	}

	// Array wrapper: [{...}]; some tool versions emit one record per query.
	var wrapped []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err == nil && len(wrapped) > 0 {
		return ParseActivityResult(wrapped[0])
	}

	// Text fallback: "txCount: 42" / "contractCount: 3" lines.
	if counters, ok := parseActivityText(trimmed); ok {
		return counters, nil
	}

	return types.ActivityCounters{}, fmt.Errorf("activity output %q: %w", truncate(trimmed, 120), types.ErrOracleMalformed)
}

func parseActivityText(text string) (types.ActivityCounters, bool) {
	var counters types.ActivityCounters
	found := false

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "txcount", "tx count", "transactions":
			counters.TxCount = n
			found = true
		case "contractcount", "contract count", "contracts", "deployed contracts":
			counters.ContractCount = n
			found = true
		}
	}

	return counters, found
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package types

import "strings"

// DataKind names one independently cached facet of an address.
type DataKind string

const (
	// KindBalance is the SUI coin balance, cached as a formatted decimal
	// string.
	KindBalance DataKind = "balance"

	// KindMembership is whether the address holds a community membership
	// dynamic field.
	KindMembership DataKind = "membership"

	// KindActivity is the on-chain activity counters used for tier
	// calculation.
	KindActivity DataKind = "activity"
)

// Valid reports whether k is a known data kind.
func (k DataKind) Valid() bool {
	switch k {
	case KindBalance, KindMembership, KindActivity:
		return true
	}
	return false
}

// NormalizeAddress canonicalizes an address for use as a cache key: trimmed,
// lowercased, 0x-prefixed. Returns "" for blank input.
func NormalizeAddress(address string) string {
	a := strings.TrimSpace(address)
	if a == "" {
		return ""
	}
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		a = "0x" + a
	}
	return strings.ToLower(a)
}

// ActivityCounters holds the raw on-chain activity numbers behind tier
// calculation.
type ActivityCounters struct {
	TxCount       int `json:"txCount"`
	ContractCount int `json:"contractCount"`
}

// TierInfo is the computed activity tier for one address.
type TierInfo struct {
	Level         int     `json:"level"`
	Name          string  `json:"name"`
	TxCount       int     `json:"txCount"`
	ContractCount int     `json:"contractCount"`
	// Progress is the fraction of the way to the next tier, in [0, 1].
	// Top-tier addresses report 1.
	Progress float64 `json:"progress"`
}

// Enriched is one address with every facet the dashboard displays. Balance is
// omitted when the caller did not request it; IsMember is omitted when
// membership lookups are not configured.
type Enriched struct {
	Address  string    `json:"address"`
	Balance  string    `json:"balance,omitempty"`
	IsMember *bool     `json:"isMember,omitempty"`
	Tier     *TierInfo `json:"tier,omitempty"`
	// Degraded marks responses where at least one facet fell back to a
	// conservative default after a failed fetch.
	Degraded bool `json:"degraded,omitempty"`
}

// Package tier maps raw per-address activity counters to a dashboard tier.
// Pure computation; the counters themselves come from the enrichment cache.
package tier

import "github.com/suidash/backend/pkg/types"

// Threshold is the minimum activity required to hold a tier level.
type Threshold struct {
	Level        int
	Name         string
	MinTx        int
	MinContracts int
}

// Thresholds is the tier ladder, ascending by level. Level 0 must require
// zero activity so every address maps to some tier.
type Thresholds []Threshold

// DefaultThresholds is the dashboard's default tier ladder.
func DefaultThresholds() Thresholds {
	return Thresholds{
		{Level: 0, Name: "newcomer", MinTx: 0, MinContracts: 0},
		{Level: 1, Name: "explorer", MinTx: 10, MinContracts: 0},
		{Level: 2, Name: "builder", MinTx: 50, MinContracts: 2},
		{Level: 3, Name: "pioneer", MinTx: 250, MinContracts: 10},
	}
}

// Level returns the highest threshold satisfied by the given counters.
func Level(txCount, contractCount int, th Thresholds) Threshold {
	current := th[0]
	for _, t := range th {
		if txCount >= t.MinTx && contractCount >= t.MinContracts {
			current = t
		}
	}
	return current
}

// Progress returns the fraction [0,1] of the way from the current tier to
// the next one. Both the transaction and the contract requirement must be
// met to advance, so progress is the smaller of the two fractions. The top
// tier reports 1.
func Progress(txCount, contractCount int, th Thresholds) float64 {
	current := Level(txCount, contractCount, th)
	if current.Level >= th[len(th)-1].Level {
		return 1
	}

	var next Threshold
	for _, t := range th {
		if t.Level == current.Level+1 {
			next = t
			break
		}
	}

	txFrac := fraction(txCount, current.MinTx, next.MinTx)
	contractFrac := fraction(contractCount, current.MinContracts, next.MinContracts)
	if txFrac < contractFrac {
		return txFrac
	}
	return contractFrac
}

// Info combines Level and Progress into the API shape.
func Info(counters types.ActivityCounters, th Thresholds) types.TierInfo {
	level := Level(counters.TxCount, counters.ContractCount, th)
	return types.TierInfo{
		Level:         level.Level,
		Name:          level.Name,
		TxCount:       counters.TxCount,
		ContractCount: counters.ContractCount,
		Progress:      Progress(counters.TxCount, counters.ContractCount, th),
	}
}

func fraction(have, from, to int) float64 {
	if to <= from {
		return 1
	}
	f := float64(have-from) / float64(to-from)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

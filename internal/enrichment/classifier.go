package enrichment

import "time"

// State is the staleness class of a cache entry.
type State int

const (
	// StateFresh entries are served as-is.
	StateFresh State = iota
	// StateStale entries are served as-is while a background revalidation is
	// triggered.
	StateStale
	// StateExpired covers both aged-out and absent entries; the caller blocks
	// on a fresh fetch.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// Classify maps a cache entry's age to its staleness class. An absent entry
// is Expired. Boundaries are half-open: age < freshWindow is Fresh,
// freshWindow <= age < staleWindow is Stale, age >= staleWindow is Expired.
//
// Pure function; the coordinator injects its clock so this stays trivially
// testable.
func Classify(fetchedAt time.Time, exists bool, now time.Time, freshWindow, staleWindow time.Duration) State {
	if !exists {
		return StateExpired
	}

	age := now.Sub(fetchedAt)
	switch {
	case age < freshWindow:
		return StateFresh
	case age < staleWindow:
		return StateStale
	default:
		return StateExpired
	}
}

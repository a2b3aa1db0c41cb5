package enrichment

import (
	"time"

	"github.com/suidash/backend/pkg/types"
)

// Outcome classifies a fetch record.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// FetchRecord is one audited oracle fetch outcome. Emitted for every address
// on both the blocking and the background path.
type FetchRecord struct {
	ID        string
	Address   string
	Kind      types.DataKind
	Outcome   Outcome
	Error     string
	Latency   time.Duration
	FetchedAt time.Time
}

// FetchRecorder receives fetch records for auditing. Implementations must
// return quickly; the coordinator calls this on the resolve path.
type FetchRecorder interface {
	RecordFetch(rec FetchRecord)
}

// Package storage persists fetch audit records for the dashboard's
// operational views. The enrichment cache itself is never persisted; only
// the record of what was fetched, when, and how it went.
package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suidash/backend/internal/enrichment"
)

// Storage is the sink for fetch audit records.
type Storage interface {
	// RecordFetch stores one fetch outcome.
	RecordFetch(ctx context.Context, rec *enrichment.FetchRecord) error

	// Close closes the storage connection.
	Close() error
}

const recorderBuffer = 256

// Recorder adapts a Storage to the coordinator's non-blocking recording
// hook. Records flow through a buffered channel to a single writer
// goroutine; when the buffer is full the record is dropped rather than
// slowing a resolve call down.
type Recorder struct {
	storage Storage
	logger  *zap.Logger
	ch      chan enrichment.FetchRecord
	done    chan struct{}
	once    sync.Once
}

// NewRecorder starts the writer goroutine.
func NewRecorder(s Storage, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Recorder{
		storage: s,
		logger:  logger,
		ch:      make(chan enrichment.FetchRecord, recorderBuffer),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

// RecordFetch implements enrichment.FetchRecorder. Never blocks.
func (r *Recorder) RecordFetch(rec enrichment.FetchRecord) {
	select {
	case r.ch <- rec:
	default:
		RecordsDroppedTotal.Inc()
	}
}

func (r *Recorder) loop() {
	defer close(r.done)

	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := r.storage.RecordFetch(ctx, &rec)
		cancel()
		if err != nil {
			RecordWriteErrorsTotal.Inc()
			r.logger.Warn("fetch-record-write-failed",
				zap.String("address", rec.Address),
				zap.String("kind", string(rec.Kind)),
				zap.Error(err))
			continue
		}
		RecordsWrittenTotal.Inc()
	}
}

// Close drains pending records and stops the writer.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.ch)
	})
	<-r.done
}

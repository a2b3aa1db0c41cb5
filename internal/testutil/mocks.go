package testutil

import (
	"sync"
	"time"

	"github.com/suidash/backend/internal/enrichment"
	"github.com/suidash/backend/pkg/types"
)

// MockPublisher records refresh notifications for assertions.
type MockPublisher struct {
	mu     sync.Mutex
	events []RefreshEvent
}

// RefreshEvent is one captured PublishRefresh call.
type RefreshEvent struct {
	Address   string
	Kind      types.DataKind
	FetchedAt time.Time
}

// NewMockPublisher creates an empty publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishRefresh implements enrichment.Publisher.
func (p *MockPublisher) PublishRefresh(address string, kind types.DataKind, fetchedAt time.Time) {
	p.mu.Lock()
	p.events = append(p.events, RefreshEvent{Address: address, Kind: kind, FetchedAt: fetchedAt})
	p.mu.Unlock()
}

// Events returns a copy of everything published so far.
func (p *MockPublisher) Events() []RefreshEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RefreshEvent, len(p.events))
	copy(out, p.events)
	return out
}

// MockRecorder captures fetch audit records for assertions.
type MockRecorder struct {
	mu      sync.Mutex
	records []enrichment.FetchRecord
}

// NewMockRecorder creates an empty recorder.
func NewMockRecorder() *MockRecorder {
	return &MockRecorder{}
}

// RecordFetch implements enrichment.FetchRecorder.
func (r *MockRecorder) RecordFetch(rec enrichment.FetchRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Records returns a copy of everything recorded so far.
func (r *MockRecorder) Records() []enrichment.FetchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]enrichment.FetchRecord, len(r.records))
	copy(out, r.records)
	return out
}

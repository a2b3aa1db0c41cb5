// Package events fans out cache refresh notifications to dashboard clients.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suidash/backend/pkg/types"
)

// RefreshEvent is emitted when a background revalidation lands a new value.
type RefreshEvent struct {
	Address   string         `json:"address"`
	Kind      types.DataKind `json:"kind"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

const subscriberBuffer = 16

// Hub broadcasts refresh events to subscribers. Publishing never blocks: a
// subscriber whose buffer is full loses the event, which is acceptable for a
// live dashboard feed and keeps the coordinator's background path fast.
type Hub struct {
	logger *zap.Logger

	mu   sync.Mutex
	subs map[chan RefreshEvent]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[chan RefreshEvent]struct{}),
	}
}

// Subscribe registers a new listener. The returned cancel func must be
// called when the listener goes away; it closes the channel.
func (h *Hub) Subscribe() (<-chan RefreshEvent, func()) {
	ch := make(chan RefreshEvent, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	SubscribersGauge.Set(float64(len(h.subs)))
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		SubscribersGauge.Set(float64(len(h.subs)))
		h.mu.Unlock()
	}

	return ch, cancel
}

// PublishRefresh implements enrichment.Publisher.
func (h *Hub) PublishRefresh(address string, kind types.DataKind, fetchedAt time.Time) {
	event := RefreshEvent{Address: address, Kind: kind, FetchedAt: fetchedAt}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- event:
			EventsPublishedTotal.Inc()
		default:
			EventsDroppedTotal.Inc()
		}
	}
}

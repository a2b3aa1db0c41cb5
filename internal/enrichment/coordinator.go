package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suidash/backend/pkg/types"
)

// Publisher receives refresh notifications when a background revalidation
// lands a new value. Implementations must not block.
type Publisher interface {
	PublishRefresh(address string, kind types.DataKind, fetchedAt time.Time)
}

// entry is one cached value and the time it was fetched. Entries are created
// on first successful fetch, overwritten in place on every refresh, and only
// removed by explicit invalidation.
type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Coordinator owns the cache table and in-flight set for a single data kind.
// It decides, per address, whether to serve the cached value, block on a
// fresh fetch, or serve stale data while refreshing in the background.
//
// The table and the in-flight set are only ever touched under mu; every
// check-then-set on them happens inside one critical section so concurrent
// Resolve calls cannot spawn duplicate revalidations.
type Coordinator[V any] struct {
	kind        types.DataKind
	executor    *Executor[V]
	freshWindow time.Duration
	staleWindow time.Duration
	fallback    V
	bgTimeout   time.Duration
	now         func() time.Time
	logger      *zap.Logger
	publisher   Publisher
	recorder    FetchRecorder

	mu       sync.Mutex
	entries  map[string]entry[V]
	inflight map[string]struct{}
	bg       sync.WaitGroup
}

// CoordinatorConfig holds coordinator construction parameters.
type CoordinatorConfig[V any] struct {
	Kind        types.DataKind
	Executor    *Executor[V]
	FreshWindow time.Duration
	StaleWindow time.Duration
	// Fallback is the conservative value substituted for an address whose
	// blocking fetch failed. It is returned to the caller but never cached.
	Fallback V
	// BGTimeout bounds a detached background revalidation. Zero means 30s.
	BGTimeout time.Duration
	// Now is the clock; nil means time.Now. Injected for fake-clock tests.
	Now       func() time.Time
	Logger    *zap.Logger
	Publisher Publisher
	Recorder  FetchRecorder
}

// NewCoordinator creates a cache coordinator for one data kind.
func NewCoordinator[V any](cfg CoordinatorConfig[V]) *Coordinator[V] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bgTimeout := cfg.BGTimeout
	if bgTimeout <= 0 {
		bgTimeout = 30 * time.Second
	}

	return &Coordinator[V]{
		kind:        cfg.Kind,
		executor:    cfg.Executor,
		freshWindow: cfg.FreshWindow,
		staleWindow: cfg.StaleWindow,
		fallback:    cfg.Fallback,
		bgTimeout:   bgTimeout,
		now:         now,
		logger:      logger,
		publisher:   cfg.Publisher,
		recorder:    cfg.Recorder,
		entries:     make(map[string]entry[V]),
		inflight:    make(map[string]struct{}),
	}
}

// Resolve returns one value per requested address. Fresh and stale entries
// are served from cache (stale ones trigger a detached revalidation);
// expired or missing entries block on a batch fetch. Addresses whose
// blocking fetch failed get the fallback value, reported in degraded, and are
// deliberately not cached so the next call retries.
//
// Latency is bounded by the blocking path only: revalidations are never
// awaited.
func (c *Coordinator[V]) Resolve(ctx context.Context, addresses []string) (map[string]V, map[string]bool) {
	results := make(map[string]V, len(addresses))
	degraded := make(map[string]bool)

	var missing, revalidate []string
	seen := make(map[string]struct{}, len(addresses))

	now := c.now()
	c.mu.Lock()
	for _, addr := range addresses {
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		e, ok := c.entries[addr]
		state := Classify(e.fetchedAt, ok, now, c.freshWindow, c.staleWindow)
		CacheStateTotal.WithLabelValues(string(c.kind), state.String()).Inc()

		switch state {
		case StateFresh:
			results[addr] = e.value
		case StateStale:
			results[addr] = e.value
			if _, busy := c.inflight[addr]; !busy {
				c.inflight[addr] = struct{}{}
				revalidate = append(revalidate, addr)
			}
		default:
			missing = append(missing, addr)
		}
	}
	if len(revalidate) > 0 {
		InFlightRevalidations.WithLabelValues(string(c.kind)).Add(float64(len(revalidate)))
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		c.fetchBlocking(ctx, missing, results, degraded)
	}

	if len(revalidate) > 0 {
		RevalidationsTotal.WithLabelValues(string(c.kind)).Inc()
		c.bg.Add(1)
		go c.revalidate(revalidate)
	}

	return results, degraded
}

// fetchBlocking resolves the expired/missing partition synchronously.
// Successes are written to the table; failures fall back without any cache
// write, so a previously uncached address is retried on the very next call.
func (c *Coordinator[V]) fetchBlocking(ctx context.Context, missing []string, results map[string]V, degraded map[string]bool) {
	start := time.Now()
	fetched := c.executor.FetchMany(ctx, missing)
	elapsed := time.Since(start)
	BlockingFetchDuration.WithLabelValues(string(c.kind)).Observe(elapsed.Seconds())

	records := make([]FetchRecord, 0, len(missing))
	fetchedAt := c.now()
	c.mu.Lock()
	for _, addr := range missing {
		res, ok := fetched[addr]
		if !ok || res.Err != nil {
			results[addr] = c.fallback
			degraded[addr] = true
			FallbacksTotal.WithLabelValues(string(c.kind)).Inc()
			c.logger.Warn("blocking-fetch-degraded",
				zap.String("kind", string(c.kind)),
				zap.String("address", addr),
				zap.Error(res.Err))
			records = append(records, c.newRecord(addr, fetchedAt, res.Err, elapsed))
			continue
		}
		c.entries[addr] = entry[V]{value: res.Value, fetchedAt: fetchedAt}
		results[addr] = res.Value
		records = append(records, c.newRecord(addr, fetchedAt, nil, elapsed))
	}
	c.mu.Unlock()

	c.flushRecords(records)
}

// revalidate is the detached background refresh for one batch of stale
// addresses. Its only effects are cache writes for successful addresses and
// the unconditional removal of every address from the in-flight set.
func (c *Coordinator[V]) revalidate(addresses []string) {
	defer c.bg.Done()

	jobID := uuid.NewString()[:8]
	ctx, cancel := context.WithTimeout(context.Background(), c.bgTimeout)
	defer cancel()

	c.logger.Debug("revalidation-started",
		zap.String("kind", string(c.kind)),
		zap.String("job", jobID),
		zap.Int("addresses", len(addresses)))

	start := time.Now()
	fetched := c.executor.FetchMany(ctx, addresses)
	elapsed := time.Since(start)

	var updated []string
	records := make([]FetchRecord, 0, len(addresses))

	fetchedAt := c.now()
	c.mu.Lock()
	for _, addr := range addresses {
		delete(c.inflight, addr)

		res, ok := fetched[addr]
		if !ok || res.Err != nil {
			// Stale entry stays untouched; next Resolve may retry.
			RevalidationFailuresTotal.WithLabelValues(string(c.kind)).Inc()
			c.logger.Warn("revalidation-failed",
				zap.String("kind", string(c.kind)),
				zap.String("job", jobID),
				zap.String("address", addr),
				zap.Error(res.Err))
			records = append(records, c.newRecord(addr, fetchedAt, res.Err, elapsed))
			continue
		}
		c.entries[addr] = entry[V]{value: res.Value, fetchedAt: fetchedAt}
		updated = append(updated, addr)
		records = append(records, c.newRecord(addr, fetchedAt, nil, elapsed))
	}
	c.mu.Unlock()
	InFlightRevalidations.WithLabelValues(string(c.kind)).Sub(float64(len(addresses)))

	c.flushRecords(records)

	if c.publisher != nil {
		for _, addr := range updated {
			c.publisher.PublishRefresh(addr, c.kind, fetchedAt)
		}
	}
}

func (c *Coordinator[V]) newRecord(addr string, fetchedAt time.Time, fetchErr error, latency time.Duration) FetchRecord {
	rec := FetchRecord{
		ID:        uuid.NewString(),
		Address:   addr,
		Kind:      c.kind,
		FetchedAt: fetchedAt,
		Latency:   latency,
		Outcome:   OutcomeOK,
	}
	if fetchErr != nil {
		rec.Outcome = OutcomeError
		rec.Error = fetchErr.Error()
	}
	return rec
}

func (c *Coordinator[V]) flushRecords(records []FetchRecord) {
	if c.recorder == nil {
		return
	}
	for _, rec := range records {
		c.recorder.RecordFetch(rec)
	}
}

// Invalidate removes the entry for one address. No-op if absent.
func (c *Coordinator[V]) Invalidate(address string) {
	c.mu.Lock()
	delete(c.entries, address)
	c.mu.Unlock()
}

// InvalidateAll drops every entry for this data kind.
func (c *Coordinator[V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Coordinator[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// FetchedAt reports when the entry for address was last refreshed.
func (c *Coordinator[V]) FetchedAt(address string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[address]
	return e.fetchedAt, ok
}

// WaitBackground blocks until all spawned revalidations have completed.
// Used by shutdown and by tests; Resolve never calls it.
func (c *Coordinator[V]) WaitBackground() {
	c.bg.Wait()
}

package enrichment_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/suidash/backend/internal/enrichment"
	"github.com/suidash/backend/internal/testutil"
	"github.com/suidash/backend/pkg/types"
)

const (
	testFreshWindow = 30 * time.Second
	testStaleWindow = 2 * time.Minute
)

type coordinatorFixture struct {
	coord     *enrichment.Coordinator[string]
	clock     *testutil.Clock
	publisher *testutil.MockPublisher
	recorder  *testutil.MockRecorder
}

// newFixture builds a balance coordinator around the given single-address
// fetch function, with a fake clock and capture-everything publisher and
// recorder.
func newFixture(t *testing.T, fetch enrichment.FetchFunc[string]) *coordinatorFixture {
	t.Helper()

	clock := testutil.NewClock(time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC))
	publisher := testutil.NewMockPublisher()
	recorder := testutil.NewMockRecorder()

	exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
		Kind:      types.KindBalance,
		Single:    fetch,
		ChunkSize: 3,
		Policy:    fastPolicy(1),
		Logger:    zaptest.NewLogger(t),
	})

	coord := enrichment.NewCoordinator(enrichment.CoordinatorConfig[string]{
		Kind:        types.KindBalance,
		Executor:    exec,
		FreshWindow: testFreshWindow,
		StaleWindow: testStaleWindow,
		Fallback:    "0",
		Now:         clock.Now,
		Logger:      zaptest.NewLogger(t),
		Publisher:   publisher,
		Recorder:    recorder,
	})

	return &coordinatorFixture{coord: coord, clock: clock, publisher: publisher, recorder: recorder}
}

func TestResolveBlocksOnMissThenServesFresh(t *testing.T) {
	t.Parallel()

	addr := testutil.TestAddress(1)
	var calls atomic.Int64
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		calls.Add(1)
		return "12.5000", nil
	})

	values, degraded := fx.coord.Resolve(context.Background(), []string{addr})
	if values[addr] != "12.5000" {
		t.Fatalf("value = %q, want 12.5000", values[addr])
	}
	if degraded[addr] {
		t.Fatal("successful fetch reported degraded")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls.Load())
	}

	// Still inside the fresh window: served from cache, no oracle call.
	fx.clock.Advance(testFreshWindow - time.Second)
	values, _ = fx.coord.Resolve(context.Background(), []string{addr})
	if values[addr] != "12.5000" {
		t.Fatalf("cached value = %q, want 12.5000", values[addr])
	}
	if calls.Load() != 1 {
		t.Errorf("fresh entry refetched: %d calls", calls.Load())
	}
}

func TestResolveCollapsesDuplicateAddresses(t *testing.T) {
	t.Parallel()

	addr := testutil.TestAddress(1)
	var calls atomic.Int64
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		calls.Add(1)
		return "1.0000", nil
	})

	values, _ := fx.coord.Resolve(context.Background(), []string{addr, addr, addr})
	if values[addr] != "1.0000" {
		t.Fatalf("value = %q", values[addr])
	}
	if calls.Load() != 1 {
		t.Errorf("duplicate addresses fetched %d times", calls.Load())
	}
}

func TestResolveServesStaleAndRevalidates(t *testing.T) {
	t.Parallel()

	addr := testutil.TestAddress(1)
	var value atomic.Value
	value.Store("v1")
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		return value.Load().(string), nil
	})

	// Prime the cache, then age the entry into the stale window.
	fx.coord.Resolve(context.Background(), []string{addr})
	primedAt, _ := fx.coord.FetchedAt(addr)
	fx.clock.Advance(testFreshWindow + time.Second)
	value.Store("v2")

	values, degraded := fx.coord.Resolve(context.Background(), []string{addr})
	if values[addr] != "v1" {
		t.Fatalf("stale resolve = %q, want previous value v1", values[addr])
	}
	if degraded[addr] {
		t.Fatal("stale serve reported degraded")
	}

	fx.coord.WaitBackground()

	refreshedAt, ok := fx.coord.FetchedAt(addr)
	if !ok || !refreshedAt.After(primedAt) {
		t.Fatalf("fetchedAt not advanced by revalidation: %v -> %v", primedAt, refreshedAt)
	}

	values, _ = fx.coord.Resolve(context.Background(), []string{addr})
	if values[addr] != "v2" {
		t.Errorf("post-revalidation value = %q, want v2", values[addr])
	}

	events := fx.publisher.Events()
	if len(events) != 1 || events[0].Address != addr || events[0].Kind != types.KindBalance {
		t.Errorf("unexpected refresh events %+v", events)
	}
}

func TestNoDuplicateInFlightRevalidation(t *testing.T) {
	t.Parallel()

	addr := testutil.TestAddress(1)
	gate := make(chan struct{})
	var calls atomic.Int64

	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		if calls.Add(1) > 1 {
			// Only background revalidations block; the priming call
			// returns immediately.
			<-gate
		}
		return "v1", nil
	})

	fx.coord.Resolve(context.Background(), []string{addr})
	fx.clock.Advance(testFreshWindow + time.Second)

	// Many concurrent resolves against the same stale entry. All must serve
	// the stale value immediately and exactly one revalidation may start.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values, _ := fx.coord.Resolve(context.Background(), []string{addr})
			if values[addr] != "v1" {
				t.Errorf("concurrent resolve = %q, want v1", values[addr])
			}
		}()
	}
	wg.Wait()

	close(gate)
	fx.coord.WaitBackground()

	if got := calls.Load(); got != 2 {
		t.Errorf("expected 1 priming + 1 revalidation fetch, got %d total", got)
	}
}

func TestFailuresAreNeverCached(t *testing.T) {
	t.Parallel()

	addr := testutil.TestAddress(1)
	var calls atomic.Int64
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		calls.Add(1)
		return "", types.ErrOracleTransport
	})

	values, degraded := fx.coord.Resolve(context.Background(), []string{addr})
	if values[addr] != "0" {
		t.Fatalf("failed fetch = %q, want fallback 0", values[addr])
	}
	if !degraded[addr] {
		t.Fatal("failed fetch not reported degraded")
	}
	if fx.coord.Len() != 0 {
		t.Fatalf("failure was cached: %d entries", fx.coord.Len())
	}

	// The very next resolve retries instead of serving the fallback.
	fx.coord.Resolve(context.Background(), []string{addr})
	if calls.Load() != 2 {
		t.Errorf("expected a retry on second resolve, got %d calls", calls.Load())
	}

	recs := fx.recorder.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.Outcome != enrichment.OutcomeError || rec.Error == "" {
			t.Errorf("record %+v should carry the error outcome", rec)
		}
	}
}

func TestFailedRevalidationKeepsStaleEntry(t *testing.T) {
	t.Parallel()

	addr := testutil.TestAddress(1)
	var fail atomic.Bool
	var calls atomic.Int64
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		calls.Add(1)
		if fail.Load() {
			return "", types.ErrOracleTransport
		}
		return "v1", nil
	})

	fx.coord.Resolve(context.Background(), []string{addr})
	primedAt, _ := fx.coord.FetchedAt(addr)

	fx.clock.Advance(testFreshWindow + time.Second)
	fail.Store(true)

	values, degraded := fx.coord.Resolve(context.Background(), []string{addr})
	if values[addr] != "v1" || degraded[addr] {
		t.Fatalf("stale resolve = %q degraded=%v, want clean v1", values[addr], degraded[addr])
	}
	fx.coord.WaitBackground()

	// The stale value and its timestamp survive the failed refresh.
	fetchedAt, ok := fx.coord.FetchedAt(addr)
	if !ok || !fetchedAt.Equal(primedAt) {
		t.Fatalf("failed revalidation touched the entry: %v -> %v", primedAt, fetchedAt)
	}
	if events := fx.publisher.Events(); len(events) != 0 {
		t.Errorf("failed revalidation published refresh events: %+v", events)
	}

	// The in-flight slot was released, so the next stale resolve retries.
	before := calls.Load()
	fx.coord.Resolve(context.Background(), []string{addr})
	fx.coord.WaitBackground()
	if calls.Load() != before+1 {
		t.Errorf("in-flight slot not released after failure")
	}
}

func TestExpiredEntryBlocksForFreshValue(t *testing.T) {
	t.Parallel()

	addr := testutil.TestAddress(1)
	var value atomic.Value
	value.Store("v1")
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		return value.Load().(string), nil
	})

	fx.coord.Resolve(context.Background(), []string{addr})
	fx.clock.Advance(testStaleWindow + time.Second)
	value.Store("v2")

	values, _ := fx.coord.Resolve(context.Background(), []string{addr})
	if values[addr] != "v2" {
		t.Errorf("expired resolve = %q, want blocking refetch v2", values[addr])
	}
}

func TestResolvePartitionsMixedStates(t *testing.T) {
	t.Parallel()

	freshAddr := testutil.TestAddress(1)
	staleAddr := testutil.TestAddress(2)
	missAddr := testutil.TestAddress(3)

	var calls sync.Map
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		n, _ := calls.LoadOrStore(address, new(atomic.Int64))
		n.(*atomic.Int64).Add(1)
		return "v:" + address[:6], nil
	})

	// staleAddr primed first so it ages past the fresh window; freshAddr
	// primed after advancing so it stays fresh.
	fx.coord.Resolve(context.Background(), []string{staleAddr})
	fx.clock.Advance(testFreshWindow + time.Second)
	fx.coord.Resolve(context.Background(), []string{freshAddr})

	values, degraded := fx.coord.Resolve(context.Background(), []string{freshAddr, staleAddr, missAddr})
	fx.coord.WaitBackground()

	for _, addr := range []string{freshAddr, staleAddr, missAddr} {
		if values[addr] == "" {
			t.Errorf("no value for %s", addr)
		}
		if degraded[addr] {
			t.Errorf("%s unexpectedly degraded", addr)
		}
	}

	counts := func(addr string) int64 {
		n, ok := calls.Load(addr)
		if !ok {
			return 0
		}
		return n.(*atomic.Int64).Load()
	}
	if got := counts(freshAddr); got != 1 {
		t.Errorf("fresh address fetched %d times, want 1 (prime only)", got)
	}
	if got := counts(staleAddr); got != 2 {
		t.Errorf("stale address fetched %d times, want prime + revalidation", got)
	}
	if got := counts(missAddr); got != 1 {
		t.Errorf("missing address fetched %d times, want 1", got)
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	a1, a2 := testutil.TestAddress(1), testutil.TestAddress(2)
	var calls atomic.Int64
	fx := newFixture(t, func(ctx context.Context, address string) (string, error) {
		calls.Add(1)
		return "v", nil
	})

	fx.coord.Resolve(context.Background(), []string{a1, a2})
	if fx.coord.Len() != 2 {
		t.Fatalf("expected 2 cached entries, got %d", fx.coord.Len())
	}

	fx.coord.Invalidate(a1)
	if fx.coord.Len() != 1 {
		t.Fatalf("expected 1 entry after Invalidate, got %d", fx.coord.Len())
	}

	// a1 refetches, a2 is still fresh.
	before := calls.Load()
	fx.coord.Resolve(context.Background(), []string{a1, a2})
	if calls.Load() != before+1 {
		t.Errorf("expected exactly one refetch after invalidation")
	}

	fx.coord.InvalidateAll()
	if fx.coord.Len() != 0 {
		t.Errorf("expected empty table after InvalidateAll, got %d", fx.coord.Len())
	}
}

package enrichment_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/suidash/backend/internal/enrichment"
	"github.com/suidash/backend/internal/testutil"
	"github.com/suidash/backend/pkg/retry"
	"github.com/suidash/backend/pkg/types"
)

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestFetchManyEmptyInput(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
		Kind: types.KindBalance,
		Single: func(ctx context.Context, address string) (string, error) {
			calls.Add(1)
			return "0", nil
		},
		Policy: fastPolicy(3),
		Logger: zaptest.NewLogger(t),
	})

	results := exec.FetchMany(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("expected empty result map, got %d entries", len(results))
	}
	if calls.Load() != 0 {
		t.Fatalf("oracle called %d times for empty input", calls.Load())
	}
}

func TestFetchManyBatchPath(t *testing.T) {
	t.Parallel()

	a1, a2, a3 := testutil.TestAddress(1), testutil.TestAddress(2), testutil.TestAddress(3)

	var batchCalls atomic.Int64
	exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
		Kind: types.KindBalance,
		Batch: func(ctx context.Context, addresses []string) (map[string]enrichment.Result[string], error) {
			batchCalls.Add(1)
			return map[string]enrichment.Result[string]{
				a1: {Value: "1.0000"},
				a2: {Err: &types.OracleError{Op: "suix_getBalance", Address: a2, Err: types.ErrOracleMalformed}},
				// a3 deliberately missing from the response.
			}, nil
		},
		Single: func(ctx context.Context, address string) (string, error) {
			t.Error("single fetch used despite batch support")
			return "", nil
		},
		Policy: fastPolicy(3),
		Logger: zaptest.NewLogger(t),
	})

	results := exec.FetchMany(context.Background(), []string{a1, a2, a3})

	if batchCalls.Load() != 1 {
		t.Fatalf("expected 1 batch call, got %d", batchCalls.Load())
	}
	if got := results[a1]; got.Err != nil || got.Value != "1.0000" {
		t.Errorf("a1 = %+v, want value 1.0000", got)
	}
	if got := results[a2]; !errors.Is(got.Err, types.ErrOracleMalformed) {
		t.Errorf("a2 error = %v, want malformed", got.Err)
	}
	// An address the oracle silently dropped must still get an explicit error.
	if got := results[a3]; !errors.Is(got.Err, types.ErrOracleMalformed) {
		t.Errorf("a3 error = %v, want malformed for missing sub-result", got.Err)
	}
}

func TestFetchManyBatchEnvelopeFailure(t *testing.T) {
	t.Parallel()

	addrs := []string{testutil.TestAddress(1), testutil.TestAddress(2)}
	envErr := &types.OracleError{Op: "batch", Err: types.ErrOracleTransport}

	exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
		Kind: types.KindBalance,
		Batch: func(ctx context.Context, addresses []string) (map[string]enrichment.Result[string], error) {
			return nil, envErr
		},
		Policy: fastPolicy(3),
		Logger: zaptest.NewLogger(t),
	})

	results := exec.FetchMany(context.Background(), addrs)
	if len(results) != len(addrs) {
		t.Fatalf("expected %d results, got %d", len(addrs), len(results))
	}
	for _, addr := range addrs {
		if !errors.Is(results[addr].Err, types.ErrOracleTransport) {
			t.Errorf("%s error = %v, want transport", addr, results[addr].Err)
		}
	}
}

func TestFetchManyChunkedBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const chunkSize = 3
	addrs := make([]string, 7)
	for i := range addrs {
		addrs[i] = testutil.TestAddress(i + 1)
	}

	var (
		current atomic.Int64
		peak    atomic.Int64
	)
	exec := enrichment.NewExecutor(enrichment.ExecutorConfig[types.ActivityCounters]{
		Kind:      types.KindActivity,
		ChunkSize: chunkSize,
		Single: func(ctx context.Context, address string) (types.ActivityCounters, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return types.ActivityCounters{TxCount: 1}, nil
		},
		Policy: fastPolicy(1),
		Logger: zaptest.NewLogger(t),
	})

	results := exec.FetchMany(context.Background(), addrs)

	if len(results) != len(addrs) {
		t.Fatalf("expected %d results, got %d", len(addrs), len(results))
	}
	for _, addr := range addrs {
		if results[addr].Err != nil {
			t.Errorf("%s failed: %v", addr, results[addr].Err)
		}
	}
	if p := peak.Load(); p > chunkSize {
		t.Errorf("observed %d concurrent fetches, limit is %d", p, chunkSize)
	}
}

func TestFetchManyIsolatesPerAddressFailures(t *testing.T) {
	t.Parallel()

	good, bad := testutil.TestAddress(1), testutil.TestAddress(2)

	exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
		Kind:      types.KindBalance,
		ChunkSize: 3,
		Single: func(ctx context.Context, address string) (string, error) {
			if address == bad {
				return "", &types.OracleError{Op: "suix_getBalance", Address: bad, Err: types.ErrOracleTransport}
			}
			return "5.0000", nil
		},
		Policy: fastPolicy(3),
		Logger: zaptest.NewLogger(t),
	})

	results := exec.FetchMany(context.Background(), []string{good, bad})

	if got := results[good]; got.Err != nil || got.Value != "5.0000" {
		t.Errorf("good address = %+v, want 5.0000 with no error", got)
	}
	if got := results[bad]; !errors.Is(got.Err, types.ErrOracleTransport) {
		t.Errorf("bad address error = %v, want transport", got.Err)
	}
}

func TestFetchRetriesRetryableOnly(t *testing.T) {
	t.Parallel()

	t.Run("rate-limited-then-success", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
			Kind: types.KindBalance,
			Single: func(ctx context.Context, address string) (string, error) {
				if calls.Add(1) < 3 {
					return "", types.ErrOracleRateLimited
				}
				return "7.0000", nil
			},
			Policy: fastPolicy(3),
			Logger: zaptest.NewLogger(t),
		})

		results := exec.FetchMany(context.Background(), []string{testutil.TestAddress(1)})
		res := results[testutil.TestAddress(1)]
		if res.Err != nil || res.Value != "7.0000" {
			t.Fatalf("result = %+v, want success after retries", res)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", calls.Load())
		}
	})

	t.Run("transport-fails-fast", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
			Kind: types.KindBalance,
			Single: func(ctx context.Context, address string) (string, error) {
				calls.Add(1)
				return "", types.ErrOracleTransport
			},
			Policy: fastPolicy(3),
			Logger: zaptest.NewLogger(t),
		})

		results := exec.FetchMany(context.Background(), []string{testutil.TestAddress(1)})
		if !errors.Is(results[testutil.TestAddress(1)].Err, types.ErrOracleTransport) {
			t.Fatal("expected transport error")
		}
		if calls.Load() != 1 {
			t.Errorf("transport error retried: %d attempts", calls.Load())
		}
	})

	t.Run("retries-exhausted", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
			Kind: types.KindBalance,
			Single: func(ctx context.Context, address string) (string, error) {
				calls.Add(1)
				return "", types.ErrOracleTimeout
			},
			Policy: fastPolicy(3),
			Logger: zaptest.NewLogger(t),
		})

		results := exec.FetchMany(context.Background(), []string{testutil.TestAddress(1)})
		if !errors.Is(results[testutil.TestAddress(1)].Err, types.ErrOracleTimeout) {
			t.Fatal("expected timeout error after exhausted retries")
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", calls.Load())
		}
	})
}

func TestFetchManyCancelledContext(t *testing.T) {
	t.Parallel()

	addrs := make([]string, 4)
	for i := range addrs {
		addrs[i] = testutil.TestAddress(i + 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once

	exec := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
		Kind:      types.KindBalance,
		ChunkSize: 2,
		Single: func(ctx context.Context, address string) (string, error) {
			// Cancel mid-way through the first chunk.
			once.Do(cancel)
			return "1.0000", nil
		},
		Policy: fastPolicy(1),
		Logger: zaptest.NewLogger(t),
	})

	results := exec.FetchMany(ctx, addrs)

	if len(results) != len(addrs) {
		t.Fatalf("expected %d results, got %d", len(addrs), len(results))
	}
	// Addresses in the never-started chunks must carry the context error
	// instead of being silently absent.
	for _, addr := range addrs[2:] {
		if !errors.Is(results[addr].Err, context.Canceled) {
			t.Errorf("%s error = %v, want context.Canceled", addr, results[addr].Err)
		}
	}
}

package enrichment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suidash/backend/pkg/retry"
	"github.com/suidash/backend/pkg/types"
)

// Result is the outcome of fetching one value for one address. Exactly one of
// Value and Err is meaningful.
type Result[V any] struct {
	Value V
	Err   error
}

// FetchFunc fetches the value for a single address against the oracle.
type FetchFunc[V any] func(ctx context.Context, address string) (V, error)

// BatchFetchFunc resolves many addresses in a single oracle round trip
// (JSON-RPC batch envelope). The returned map must carry one Result per
// requested address.
type BatchFetchFunc[V any] func(ctx context.Context, addresses []string) (map[string]Result[V], error)

// Executor turns a set of addresses needing a fresh value into as few oracle
// calls as possible. When the oracle supports native batching a single
// batched call is issued; otherwise addresses are chunked and fetched with
// bounded concurrency, sequential chunks separated by a short delay to stay
// under the oracle's rate limits.
type Executor[V any] struct {
	kind       types.DataKind
	batch      BatchFetchFunc[V] // nil when the oracle cannot batch this kind
	single     FetchFunc[V]
	chunkSize  int
	chunkDelay time.Duration
	policy     retry.Policy
	logger     *zap.Logger
}

// ExecutorConfig holds executor construction parameters.
type ExecutorConfig[V any] struct {
	Kind       types.DataKind
	Batch      BatchFetchFunc[V]
	Single     FetchFunc[V]
	ChunkSize  int
	ChunkDelay time.Duration
	Policy     retry.Policy
	Logger     *zap.Logger
}

// NewExecutor creates a batch fetch executor for one data kind.
func NewExecutor[V any](cfg ExecutorConfig[V]) *Executor[V] {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Executor[V]{
		kind:       cfg.Kind,
		batch:      cfg.Batch,
		single:     cfg.Single,
		chunkSize:  chunkSize,
		chunkDelay: cfg.ChunkDelay,
		policy:     cfg.Policy,
		logger:     logger,
	}
}

// FetchMany resolves every address to a Result. One address's failure never
// fails the batch. An empty input returns an empty map without touching the
// oracle. A single address still goes through the same code path as many.
func (e *Executor[V]) FetchMany(ctx context.Context, addresses []string) map[string]Result[V] {
	if len(addresses) == 0 {
		return map[string]Result[V]{}
	}

	if e.batch != nil {
		return e.fetchBatched(ctx, addresses)
	}

	return e.fetchChunked(ctx, addresses)
}

// fetchBatched issues one batched oracle call covering every address. A
// whole-envelope failure degrades every address individually so the caller's
// partial-failure handling stays uniform across strategies.
func (e *Executor[V]) fetchBatched(ctx context.Context, addresses []string) map[string]Result[V] {
	results, err := e.batch(ctx, addresses)
	if err != nil {
		e.logger.Warn("batch-fetch-failed",
			zap.String("kind", string(e.kind)),
			zap.Int("addresses", len(addresses)),
			zap.Error(err))

		failed := make(map[string]Result[V], len(addresses))
		for _, addr := range addresses {
			failed[addr] = Result[V]{Err: err}
		}
		return failed
	}

	// Guard against an oracle response missing sub-results.
	for _, addr := range addresses {
		if _, ok := results[addr]; !ok {
			results[addr] = Result[V]{Err: &types.OracleError{
				Op:      "batch",
				Address: addr,
				Err:     types.ErrOracleMalformed,
			}}
		}
	}

	return results
}

// fetchChunked processes addresses in chunks of chunkSize. Addresses within a
// chunk are fetched in parallel; chunks run sequentially with chunkDelay in
// between. Each individual fetch retries with exponential backoff on
// rate-limit and timeout class errors only.
func (e *Executor[V]) fetchChunked(ctx context.Context, addresses []string) map[string]Result[V] {
	results := make(map[string]Result[V], len(addresses))
	var mu sync.Mutex

	for start := 0; start < len(addresses); start += e.chunkSize {
		end := start + e.chunkSize
		if end > len(addresses) {
			end = len(addresses)
		}
		chunk := addresses[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for _, addr := range chunk {
			addr := addr
			g.Go(func() error {
				value, err := e.fetchWithRetry(gctx, addr)
				mu.Lock()
				results[addr] = Result[V]{Value: value, Err: err}
				mu.Unlock()
				// Per-address failures stay per-address; only a cancelled
				// context aborts the group.
				return gctx.Err()
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			// Mark everything we never got to.
			mu.Lock()
			for _, addr := range addresses[end:] {
				results[addr] = Result[V]{Err: ctx.Err()}
			}
			mu.Unlock()
			return results
		}

		if end < len(addresses) && e.chunkDelay > 0 {
			timer := time.NewTimer(e.chunkDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}

	return results
}

func (e *Executor[V]) fetchWithRetry(ctx context.Context, addr string) (V, error) {
	var value V
	attempts := 0

	err := retry.Do(ctx, e.policy, types.Retryable, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			FetchRetriesTotal.WithLabelValues(string(e.kind)).Inc()
		}

		v, err := e.single(ctx, addr)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		e.logger.Debug("address-fetch-failed",
			zap.String("kind", string(e.kind)),
			zap.String("address", addr),
			zap.Int("attempts", attempts),
			zap.Error(err))
		var zero V
		return zero, err
	}

	return value, nil
}

package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/suidash/backend/internal/enrichment"
	"github.com/suidash/backend/internal/events"
	"github.com/suidash/backend/internal/oracle"
	"github.com/suidash/backend/internal/storage"
	"github.com/suidash/backend/pkg/config"
	"github.com/suidash/backend/pkg/retry"
	"github.com/suidash/backend/pkg/types"
)

// Enrichment bundles the wired service with the resources it owns.
type Enrichment struct {
	Service  *enrichment.Service
	Hub      *events.Hub
	storage  storage.Storage
	recorder *storage.Recorder
}

// Close releases the enrichment resources after background work drained.
func (e *Enrichment) Close() error {
	e.Service.WaitBackground()
	if e.recorder != nil {
		e.recorder.Close()
	}
	if e.storage != nil {
		return e.storage.Close()
	}
	return nil
}

// BuildEnrichment wires the oracle adapters, executors, coordinators, and
// the service from configuration. Shared by the server and the one-shot CLI
// commands.
func BuildEnrichment(cfg *config.Config, logger *zap.Logger) (*Enrichment, error) {
	rpcClient := oracle.NewRPCClient(cfg.OracleRPCURL, cfg.OracleCallTimeout, logger)
	queryTool := oracle.NewQueryTool(cfg.QueryToolBin, cfg.QueryToolTimeout, logger)

	store, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build storage: %w", err)
	}
	recorder := storage.NewRecorder(store, logger)

	hub := events.NewHub(logger)

	policy := retry.Policy{
		MaxAttempts:  cfg.FetchMaxAttempts,
		InitialDelay: cfg.FetchInitialBackoff,
		MaxDelay:     cfg.FetchMaxBackoff,
		Multiplier:   2.0,
	}

	// Balance: the fullnode batches natively, so the executor sends one
	// JSON-RPC envelope per blocking partition.
	balanceExecutor := enrichment.NewExecutor(enrichment.ExecutorConfig[string]{
		Kind:   types.KindBalance,
		Batch:  balanceBatchFunc(rpcClient),
		Single: rpcClient.FetchBalance,
		Policy: policy,
		Logger: logger,
	})

	balances := enrichment.NewCoordinator(enrichment.CoordinatorConfig[string]{
		Kind:        types.KindBalance,
		Executor:    balanceExecutor,
		FreshWindow: cfg.BalanceFreshWindow,
		StaleWindow: cfg.BalanceStaleWindow,
		Fallback:    "0",
		Logger:      logger,
		Publisher:   hub,
		Recorder:    recorder,
	})

	// Membership: per-address dynamic field lookups, chunked with retry.
	membershipEnabled := cfg.MembershipTableHandle != ""
	var members *enrichment.Coordinator[bool]
	if membershipEnabled {
		membershipExecutor := enrichment.NewExecutor(enrichment.ExecutorConfig[bool]{
			Kind: types.KindMembership,
			Single: func(ctx context.Context, addr string) (bool, error) {
				return rpcClient.FetchMembership(ctx, addr, cfg.MembershipTableHandle)
			},
			ChunkSize:  cfg.FetchChunkSize,
			ChunkDelay: cfg.FetchChunkDelay,
			Policy:     policy,
			Logger:     logger,
		})

		members = enrichment.NewCoordinator(enrichment.CoordinatorConfig[bool]{
			Kind:        types.KindMembership,
			Executor:    membershipExecutor,
			FreshWindow: cfg.MembershipFreshWindow,
			StaleWindow: cfg.MembershipStaleWindow,
			Fallback:    false,
			Logger:      logger,
			Publisher:   hub,
			Recorder:    recorder,
		})
	}

	// Activity: each fetch is a full CLI invocation, so chunking and the
	// inter-chunk delay matter most here.
	activityExecutor := enrichment.NewExecutor(enrichment.ExecutorConfig[types.ActivityCounters]{
		Kind:       types.KindActivity,
		Single:     queryTool.FetchActivity,
		ChunkSize:  cfg.FetchChunkSize,
		ChunkDelay: cfg.FetchChunkDelay,
		Policy:     policy,
		Logger:     logger,
	})

	activity := enrichment.NewCoordinator(enrichment.CoordinatorConfig[types.ActivityCounters]{
		Kind:        types.KindActivity,
		Executor:    activityExecutor,
		FreshWindow: cfg.ActivityFreshWindow,
		StaleWindow: cfg.ActivityStaleWindow,
		Fallback:    types.ActivityCounters{},
		Logger:      logger,
		Publisher:   hub,
		Recorder:    recorder,
	})

	svc, err := enrichment.NewService(enrichment.ServiceConfig{
		Balances:          balances,
		Members:           members,
		Activity:          activity,
		MembershipEnabled: membershipEnabled,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &Enrichment{
		Service:  svc,
		Hub:      hub,
		storage:  store,
		recorder: recorder,
	}, nil
}

func buildStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		return storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return storage.NewConsoleStorage(logger), nil
}

func balanceBatchFunc(client *oracle.RPCClient) enrichment.BatchFetchFunc[string] {
	return func(ctx context.Context, addresses []string) (map[string]enrichment.Result[string], error) {
		outcomes, err := client.FetchBalanceBatch(ctx, addresses)
		if err != nil {
			return nil, err
		}

		results := make(map[string]enrichment.Result[string], len(outcomes))
		for addr, outcome := range outcomes {
			results[addr] = enrichment.Result[string]{Value: outcome.Value, Err: outcome.Err}
		}
		return results, nil
	}
}

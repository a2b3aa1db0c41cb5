package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/suidash/backend/internal/enrichment"
)

// ConsoleStorage implements Storage by logging records. The default when no
// database is configured.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// RecordFetch logs one fetch outcome.
func (c *ConsoleStorage) RecordFetch(ctx context.Context, rec *enrichment.FetchRecord) error {
	c.logger.Info("fetch-record",
		zap.String("id", rec.ID),
		zap.String("address", rec.Address),
		zap.String("kind", string(rec.Kind)),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("error", rec.Error),
		zap.Duration("latency", rec.Latency),
		zap.Time("fetched_at", rec.FetchedAt))
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

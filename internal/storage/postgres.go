package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/suidash/backend/internal/enrichment"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// RecordFetch inserts one fetch outcome into the fetch_audit table.
func (p *PostgresStorage) RecordFetch(ctx context.Context, rec *enrichment.FetchRecord) error {
	query := `
		INSERT INTO fetch_audit (
			id, address, kind, outcome, error, latency_ms, fetched_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := p.db.ExecContext(ctx, query,
		rec.ID,
		rec.Address,
		string(rec.Kind),
		string(rec.Outcome),
		rec.Error,
		rec.Latency.Milliseconds(),
		rec.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fetch record: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

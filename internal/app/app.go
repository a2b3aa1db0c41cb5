// Package app orchestrates the dashboard backend: enrichment wiring, HTTP
// surface, and graceful shutdown.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/suidash/backend/internal/enrichment"
	"github.com/suidash/backend/pkg/cache"
	"github.com/suidash/backend/pkg/config"
	"github.com/suidash/backend/pkg/healthprobe"
	"github.com/suidash/backend/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	enrichment    *Enrichment
	responseCache cache.Cache
}

// New wires the whole application from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	healthChecker := healthprobe.New()

	enr, err := BuildEnrichment(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build enrichment: %w", err)
	}

	responseCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}

	cached := enrichment.NewCachedService(enr.Service, responseCache, cfg.ResponseCacheTTL)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Enrichment:    cached,
		Hub:           enr.Hub,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		enrichment:    enr,
		responseCache: responseCache,
	}, nil
}

// Run starts the HTTP server and blocks until a termination signal arrives
// or the server fails.
func (a *App) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.httpServer.Start()
	}()

	a.healthChecker.SetReady(true)
	a.logger.Info("application-started", zap.String("port", a.cfg.HTTPPort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info("signal-received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			a.logger.Error("http-server-failed", zap.Error(err))
			return a.shutdownWith(err)
		}
	}

	return a.shutdownWith(nil)
}

func (a *App) shutdownWith(cause error) error {
	err := a.Shutdown(context.Background())
	if cause != nil {
		return cause
	}
	return err
}

package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application in dependency order: stop
// accepting traffic, drain the HTTP server, let detached revalidations
// finish their cache writes, then flush the audit recorder and close storage.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	closeErr := a.enrichment.Close()
	if closeErr != nil {
		a.logger.Error("enrichment-close-error", zap.Error(closeErr))
	}

	a.responseCache.Close()

	a.logger.Info("application-shutdown-complete")

	if err != nil {
		return err
	}
	return closeErr
}

package cmd

import (
	"context"
	"errors"
	"net/http"

	"orderlifecycle/api"
	"orderlifecycle/config"
	"orderlifecycle/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the running HTTP service
type App struct {
	config *config.Config
	router *api.Router
	server *http.Server
	db     *gorm.DB
}

// Handler exposes the routed engine.
func (a *App) Handler() http.Handler {
	return a.router.GetEngine()
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most server.shutdown_timeout.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func (a *App) close() {
	if a.db == nil {
		return
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
}

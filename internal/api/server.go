package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"touille/internal/app"
	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

const shutdownTimeout = 5 * time.Second

// ServicesFrom 從應用程式取出路由需要的服務
func ServicesFrom(a *app.App) Services {
	svc := Services{
		Processor: a.Pipeline,
		Store:     a.Store,
		Assistant: a.Assistant,
		Queue:     a.Queue,
		Model:     a.AI.ProviderName(),
	}
	if a.Cache != nil {
		svc.Cache = a.Cache
	}
	return svc
}

// Serve 啟動 HTTP 服務，ctx 結束時優雅關閉
func Serve(ctx context.Context, cfg *config.Config, svc Services) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      SetupRouter(cfg, svc),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		common.LogInfo("啟動服務",
			zap.Int("port", cfg.Server.Port),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	common.LogInfo("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server forced to shutdown")
	}
	common.LogInfo("Server exited")
	return nil
}

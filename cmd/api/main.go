package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ctdportal/infrastructure/config"
	"ctdportal/infrastructure/di"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer func() { _ = container.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, container); err != nil {
		container.Logger.Fatal("Portal stopped with error", zap.Error(err))
	}
}

// run serves the portal until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, c *di.Container) error {
	cfg := c.Config

	go c.Cache.RunJanitor(ctx, di.CacheJanitorInterval(cfg))

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := c.Client.Health(probeCtx); err != nil {
		// the portal still starts; /ready reports the backend until it answers
		c.Logger.Warn("Document backend not reachable at startup", zap.String("backend", cfg.APIBaseURL), zap.Error(err))
	}
	cancel()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      c.Router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("Starting portal",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("backend", cfg.APIBaseURL),
			zap.Strings("config_sources", cfg.Sources),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("Shutting down portal")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	err := srv.Shutdown(shutdownCtx)
	if terr := c.Tracing.Shutdown(shutdownCtx); terr != nil {
		c.Logger.Warn("Failed to flush traces", zap.Error(terr))
	}
	return err
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"giftwallet/internal/backend"
	"giftwallet/internal/cache"
	"giftwallet/internal/cli"
	"giftwallet/internal/config"
	apphttp "giftwallet/internal/http"
	"giftwallet/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(nil)
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	code := run(ctx, cfg, logger)
	cancel()
	os.Exit(code)
}

// run serves until ctx is done or the listener fails and returns the
// process exit code. The backend and cache cleanups run before it returns.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) int {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		return 1
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		return 1
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
			return
		}
		logger.Info("Backend closed", "backend", cfg.DataBackend)
	}()

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(result.Service.ListCache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, result.Service, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting giftwallet server", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return 1
	}
	logger.Info("Server stopped gracefully")
	return 0
}

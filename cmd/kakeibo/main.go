package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/cli"
	apphttp "kakeibo/internal/http"
	"kakeibo/internal/log"
	"kakeibo/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentHTTP, nil)

	app, err := cli.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentApp).Logger)
	caches.Register(app.Reports.Cache())
	caches.StartCleanup(time.Minute)

	opts := apphttp.DefaultOptions()
	opts.TrustedProxies = cfg.TrustedProxies
	opts.RateLimit = ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit,
		CleanupInterval:   ratelimit.DefaultConfig().CleanupInterval,
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, app.Ledger, app.Reports, opts)
	if err != nil {
		logger.Error("Failed to configure server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		caches.Wait()
		if err := app.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	})

	logger.Info("Starting kakeibo server",
		log.FieldAddr, srv.Addr,
		log.FieldBackend, cfg.DataBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, log.FieldAddr, srv.Addr)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

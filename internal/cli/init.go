// Package cli holds the process bootstrap shared by the kakeibo binaries and
// the command tree of kakeibo-cli.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kakeibo/internal/backend"
	"kakeibo/internal/config"
	"kakeibo/internal/log"
	"kakeibo/internal/report"
	"kakeibo/internal/services"
)

// LoadEnvFile loads .env for local development. A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the logger described by cfg for component and installs
// it as the slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	lc.Format = cfg.LogFormat
	lc.Component = component
	if out != nil {
		lc.Output = out
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadConfig reads the environment and the roster file and validates the
// result.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.LoadRoster(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is the wired ledger: store, write and read services.
type App struct {
	Config   *config.Config
	Backend  *backend.BackendResult
	Ledger   *services.LedgerService
	Reports  *services.ReportService
	Currency Currency
}

// Open creates the configured backend and the services on top of it.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		result.Cleanup()
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	app := &App{
		Config:  cfg,
		Backend: result,
		Ledger:  services.NewLedgerService(result.Store, result.ChangePublisher()),
		Reports: services.NewReportService(result.Store, cfg.Roster, services.ReportServiceConfig{
			Options:   report.Options{RollupThreshold: cfg.RollupThreshold},
			CacheSize: cfg.CacheSize,
			CacheTTL:  cfg.CacheTTL,
			Location:  loc,
		}),
		Currency: GetCurrency(cfg.Currency),
	}
	logger.InfoContext(ctx, "Ledger opened",
		log.FieldBackend, cfg.DataBackend,
		"amqp_enabled", result.Publisher != nil)
	return app, nil
}

// Close releases the backend.
func (a *App) Close() error {
	if a.Backend == nil || a.Backend.Cleanup == nil {
		return nil
	}
	return a.Backend.Cleanup()
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs after the signal, bounded by timeout; done is closed once it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is over.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// Package worker re-exports aggregated reports when the ledger changes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/report"
	"kakeibo/internal/sheets"
)

// Reporter computes reports; *services.ReportService implements it.
type Reporter interface {
	Report(ctx context.Context, viewer string, period report.Period) (report.Report, error)
	Roster() core.Roster
	Today() core.Date
	Version(ctx context.Context) (int64, error)
}

// Config holds configuration for the export worker.
type Config struct {
	// Interval is how often the backstop export runs (default: 15m).
	Interval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 15 * time.Minute}
}

// ExportWorker exports the current month and year reports of every roster
// party whenever a newer ledger version shows up.
type ExportWorker struct {
	reports   Reporter
	exporters []sheets.ReportExporter
	config    Config

	// last ledger version fully exported; -1 before the first export
	exported atomic.Int64
	exportMu sync.Mutex

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewExportWorker(reports Reporter, config Config, exporters ...sheets.ReportExporter) *ExportWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	w := &ExportWorker{reports: reports, exporters: exporters, config: config}
	w.exported.Store(-1)
	return w
}

// HandleChange processes one change message from AMQP. Messages older than
// the last export are acknowledged without work.
func (w *ExportWorker) HandleChange(ctx context.Context, msg amqp.ChangeMessage) error {
	if msg.Version <= w.exported.Load() {
		slog.DebugContext(ctx, "Skipping change already exported",
			"collection", msg.Collection,
			"version", msg.Version)
		return nil
	}
	slog.InfoContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"op", msg.Op,
		"id", msg.ID,
		"version", msg.Version)
	return w.ExportCurrent(ctx)
}

// ExportCurrent exports this month's and this year's reports for both parties.
func (w *ExportWorker) ExportCurrent(ctx context.Context) error {
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	version, err := w.reports.Version(ctx)
	if err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}
	today := w.reports.Today()
	periods := []report.Period{report.MonthOf(today.Year, today.Month), report.YearOf(today.Year)}

	var errs []error
	exported := 0
	for _, party := range w.reports.Roster().Parties {
		for _, p := range periods {
			r, err := w.reports.Report(ctx, party.ID, p)
			if err != nil {
				errs = append(errs, fmt.Errorf("report %s for %s: %w", p, party.ID, err))
				continue
			}
			for _, e := range w.exporters {
				if err := e.ExportReport(ctx, r); err != nil {
					errs = append(errs, fmt.Errorf("export %s for %s: %w", p, party.ID, err))
					continue
				}
				exported++
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	w.exported.Store(version)
	slog.InfoContext(ctx, "Exported current reports",
		"version", version,
		"exports", exported)
	return nil
}

// ExportedVersion returns the last ledger version fully exported, or -1.
func (w *ExportWorker) ExportedVersion() int64 {
	return w.exported.Load()
}

// Start begins the backstop loop. Returns an error if already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("export worker is already running")
	}
	w.running = true
	w.stopping = false
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Export worker started", "interval", w.config.Interval)
	return nil
}

// Stop gracefully stops the loop and waits for completion. It is safe to
// call from several goroutines at once; all of them wait for the same loop.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	if !w.stopping {
		w.stopping = true
		close(w.stopCh)
	}
	done := w.doneCh
	w.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Export worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	if w.doneCh == done {
		w.running = false
	}
	w.mu.Unlock()
	return nil
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// runLoop exports on startup and then on every tick where the ledger moved,
// covering messages lost while the worker was down.
func (w *ExportWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.exportIfStale(ctx)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.exportIfStale(ctx)
		}
	}
}

func (w *ExportWorker) exportIfStale(ctx context.Context) {
	version, err := w.reports.Version(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read ledger version", "error", err)
		return
	}
	if version <= w.exported.Load() {
		return
	}
	if err := w.ExportCurrent(ctx); err != nil {
		slog.ErrorContext(ctx, "Backstop export failed", "error", err)
	}
}

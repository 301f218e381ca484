package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	"kakeibo/internal/report"
	"kakeibo/internal/storage"
)

// ReportServiceConfig configures a ReportService.
type ReportServiceConfig struct {
	Options   report.Options
	CacheSize int
	CacheTTL  time.Duration
	// Location decides what "today" is for clipping the current year.
	Location *time.Location
}

// ReportService loads ledger snapshots and aggregates them into reports.
// Results are cached per ledger version, so any write invalidates them.
type ReportService struct {
	store  storage.Store
	roster core.Roster
	opts   report.Options
	loc    *time.Location
	now    func() time.Time

	cache *cache.LRUCache[report.Report]
	group singleflight.Group
}

// NewReportService returns a service reading from store.
func NewReportService(store storage.Store, roster core.Roster, cfg ReportServiceConfig) *ReportService {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ReportService{
		store:  store,
		roster: roster,
		opts:   cfg.Options,
		loc:    cfg.Location,
		now:    time.Now,
		cache:  cache.NewLRUCache[report.Report](cfg.CacheSize, cfg.CacheTTL),
	}
}

func (s *ReportService) Roster() core.Roster {
	return s.roster
}

// Cache exposes the report cache so it can be registered with a cache.Manager.
func (s *ReportService) Cache() *cache.LRUCache[report.Report] {
	return s.cache
}

// Version returns the current ledger version.
func (s *ReportService) Version(ctx context.Context) (int64, error) {
	return s.store.Version(ctx)
}

// Today returns the current date in the configured location.
func (s *ReportService) Today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

func (s *ReportService) Monthly(ctx context.Context, viewer string, year, month int) (report.Report, error) {
	return s.Report(ctx, viewer, report.MonthOf(year, month))
}

func (s *ReportService) Yearly(ctx context.Context, viewer string, year int) (report.Report, error) {
	return s.Report(ctx, viewer, report.YearOf(year))
}

// Report aggregates period for viewer. Concurrent identical requests share
// one computation.
func (s *ReportService) Report(ctx context.Context, viewer string, period report.Period) (report.Report, error) {
	if err := period.Validate(); err != nil {
		return report.Report{}, invalid(err)
	}
	version, err := s.store.Version(ctx)
	if err != nil {
		return report.Report{}, fmt.Errorf("read ledger version: %w", err)
	}
	opts := s.options()
	key := fmt.Sprintf("%d|%s|%s|%s", version, viewer, period, opts.AsOf)
	if r, ok := s.cache.Get(key); ok {
		return r, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		snap, err := s.Snapshot(ctx, period)
		if err != nil {
			return report.Report{}, err
		}
		r := report.Aggregate(s.input(snap, viewer, period, opts))
		// a write may have landed while loading; cache under what was read
		s.cache.Set(fmt.Sprintf("%d|%s|%s|%s", snap.Version, viewer, period, opts.AsOf), r)
		return r, nil
	})
	if err != nil {
		return report.Report{}, err
	}
	slog.DebugContext(ctx, "Computed report",
		"viewer", viewer,
		"period", period.String(),
		"version", version,
		"shared", shared)
	return v.(report.Report), nil
}

// CategoryDetails lists the items behind one category key of a report.
func (s *ReportService) CategoryDetails(ctx context.Context, viewer string, period report.Period, key string) ([]report.Item, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid(err)
	}
	snap, err := s.Snapshot(ctx, period)
	if err != nil {
		return nil, err
	}
	return report.Details(s.input(snap, viewer, period, s.options()), key), nil
}

// Snapshot reads, in one consistent view of the store, the collections a
// report of period needs.
func (s *ReportService) Snapshot(ctx context.Context, period report.Period) (storage.Snapshot, error) {
	w := period.Window(core.Date{})
	snap, err := s.store.Snapshot(ctx, storage.TransactionFilter{From: w.Start, To: w.End})
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("read ledger snapshot: %w", err)
	}
	return snap, nil
}

// Invalidate drops every cached report.
func (s *ReportService) Invalidate() {
	s.cache.Purge()
}

func (s *ReportService) options() report.Options {
	opts := s.opts
	if opts.AsOf.IsZero() {
		opts.AsOf = s.Today()
	}
	return opts
}

func (s *ReportService) input(snap storage.Snapshot, viewer string, period report.Period, opts report.Options) report.Input {
	return report.Input{
		Transactions: snap.Transactions,
		FixedCosts:   snap.FixedCosts,
		Categories:   snap.Categories,
		Roster:       s.roster,
		Viewer:       viewer,
		Period:       period,
		Options:      opts,
	}
}

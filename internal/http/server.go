package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/middleware/trace"
	"kakeibo/internal/report"
	"kakeibo/internal/storage"
)

// Ledger is the write side of the API; *services.LedgerService implements it.
type Ledger interface {
	CreateTransaction(ctx context.Context, actor string, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, actor string, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)

	CreateFixedCost(ctx context.Context, actor string, fc core.FixedCost) (core.FixedCost, error)
	ReviseFixedCost(ctx context.Context, actor string, e storage.FixedCostEdit) (core.FixedCost, error)
	DeleteFixedCost(ctx context.Context, id string) error
	GetFixedCost(ctx context.Context, id string) (core.FixedCost, error)
	ListFixedCosts(ctx context.Context) ([]core.FixedCost, error)

	CreateCategory(ctx context.Context, actor string, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]core.Category, error)
	ReorderCategories(ctx context.Context, ids []string) error
}

// Reports is the read side; *services.ReportService implements it.
type Reports interface {
	Report(ctx context.Context, viewer string, period report.Period) (report.Report, error)
	CategoryDetails(ctx context.Context, viewer string, period report.Period, key string) ([]report.Item, error)
	Roster() core.Roster
	Today() core.Date
	Version(ctx context.Context) (int64, error)
}

// Options tunes the server middleware.
type Options struct {
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Headers        security.HeadersConfig
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		RateLimit:    ratelimit.DefaultConfig(),
		Headers:      security.DefaultHeadersConfig(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

type Server struct {
	http.Server
	ledger  Ledger
	reports Reports

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	proxies *security.ProxyResolver
	started time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger Ledger, reports Reports, opts Options) (*Server, error) {
	proxies, err := security.NewProxyResolver(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		ledger:  ledger,
		reports: reports,
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		tracer:  trace.NewMiddleware(proxies.ClientIP),
		proxies: proxies,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", methods{http.MethodGet: s.handleHealth})
	mux.Handle("/readyz", methods{http.MethodGet: s.handleReady})

	mux.Handle("/api/reports/monthly", s.api(methods{http.MethodGet: s.handleMonthlyReport}))
	mux.Handle("/api/reports/yearly", s.api(methods{http.MethodGet: s.handleYearlyReport}))
	mux.Handle("/api/reports/monthly/categories/{id}", s.api(methods{http.MethodGet: s.handleCategoryDetails}))

	mux.Handle("/api/transactions", s.api(methods{
		http.MethodGet:  s.handleListTransactions,
		http.MethodPost: s.handleCreateTransaction,
	}))
	mux.Handle("/api/transactions/{id}", s.api(methods{
		http.MethodGet:    s.handleGetTransaction,
		http.MethodPut:    s.handleUpdateTransaction,
		http.MethodDelete: s.handleDeleteTransaction,
	}))

	mux.Handle("/api/fixed-costs", s.api(methods{
		http.MethodGet:  s.handleListFixedCosts,
		http.MethodPost: s.handleCreateFixedCost,
	}))
	mux.Handle("/api/fixed-costs/{id}", s.api(methods{
		http.MethodGet:    s.handleGetFixedCost,
		http.MethodPut:    s.handleReviseFixedCost,
		http.MethodDelete: s.handleDeleteFixedCost,
	}))
	mux.Handle("/api/fixed-costs/{id}/occurrences", s.api(methods{http.MethodGet: s.handleFixedCostOccurrences}))

	mux.Handle("/api/categories", s.api(methods{
		http.MethodGet:  s.handleListCategories,
		http.MethodPost: s.handleCreateCategory,
	}))
	mux.Handle("/api/categories/order", s.api(methods{http.MethodPut: s.handleReorderCategories}))
	mux.Handle("/api/categories/{id}", s.api(methods{
		http.MethodPut:    s.handleUpdateCategory,
		http.MethodDelete: s.handleDeleteCategory,
	}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no route for " + r.URL.Path).Write(w)
	})

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.clientKey, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.Headers(opts.Headers)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops the background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// methods dispatches on the request method and answers 405 otherwise.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	slices.Sort(allowed)
	if resp := RequireMethod(r, allowed...); resp != nil {
		resp.Write(w)
	}
}

// api requires the viewer header to name a roster party.
func (s *Server) api(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := Viewer(r)
		if viewer == "" {
			BadRequestError("missing " + HeaderUserID + " header").Write(w)
			return
		}
		if s.reports.Roster().Index(viewer) < 0 {
			slog.WarnContext(r.Context(), "Request from unknown user", "user_id", viewer)
			BadRequestError("unknown user " + viewer).Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey buckets rate limits per viewer, falling back to the client address.
func (s *Server) clientKey(r *http.Request) string {
	if viewer := Viewer(r); viewer != "" {
		return "user:" + viewer
	}
	return "ip:" + s.proxies.ClientIP(r)
}

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that the ledger can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{
			"active_clients": s.limiter.ActiveClients(),
			"rejected":       s.limiter.Rejected(),
		},
	}

	if version, err := s.reports.Version(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		checks["ledger"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]any{"status": "ok", "version": version}
	}

	metrics := s.tracer.GetMetrics()
	checks["requests"] = map[string]any{
		"total":  metrics.TotalRequests,
		"failed": metrics.FailedRequests,
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func location(parts ...string) string {
	return "/" + strings.Join(parts, "/")
}

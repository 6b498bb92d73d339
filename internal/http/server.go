// Package http exposes the dashboard as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/cache"
	"ledgerlens/internal/log"
	"ledgerlens/internal/middleware/ratelimit"
	"ledgerlens/internal/middleware/security"
	"ledgerlens/internal/middleware/trace"
	"ledgerlens/internal/services"
)

// Server wires the services behind the API routes. Aggregate endpoints are
// fronted by LRU caches keyed by the raw query string; any mutation purges
// them all.
type Server struct {
	http.Server

	dashboards *services.DashboardService
	ledger     *services.ImportService
	insights   *services.InsightService
	budgets    *services.BudgetService

	limiter  *ratelimit.Limiter
	resolver *security.Resolver
	logger   *log.Logger

	overviewCache *cache.LRUCache[overviewDTO]
	rollupCache   *cache.LRUCache[analytics.Rollup]
	averagesCache *cache.LRUCache[[]analytics.AverageGroup]
	insightsCache *cache.LRUCache[insightsDTO]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// Config holds the server's tunables.
type Config struct {
	Addr     string
	CacheTTL time.Duration

	RequestsPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(config Config, dash *services.DashboardService, ledger *services.ImportService, ins *services.InsightService, bud *services.BudgetService, logger *log.Logger) *Server {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		dashboards: dash,
		ledger:     ledger,
		insights:   ins,
		budgets:    bud,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: config.RequestsPerMinute}),
		resolver:   security.NewResolver(),
		logger:     logger.WithComponent(log.ComponentHTTP),

		overviewCache: cache.NewLRUCache[overviewDTO](100, config.CacheTTL),
		rollupCache:   cache.NewLRUCache[analytics.Rollup](100, config.CacheTTL),
		averagesCache: cache.NewLRUCache[[]analytics.AverageGroup](100, config.CacheTTL),
		insightsCache: cache.NewLRUCache[insightsDTO](10, config.CacheTTL),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.rollupCache)
	s.cacheManager.Register(s.averagesCache)
	s.cacheManager.Register(s.insightsCache)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("POST /api/transactions/import", s.handleImport)
	mux.HandleFunc("GET /api/transactions/export", s.handleExport)

	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/rollup", s.handleRollup)
	mux.HandleFunc("GET /api/averages", s.handleAverages)
	mux.HandleFunc("GET /api/mapping", s.handleMapping)

	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.HandleFunc("GET /api/insights/ignored", s.handleListIgnored)
	mux.HandleFunc("POST /api/insights/ignore", s.handleIgnore)
	mux.HandleFunc("POST /api/insights/ignore-all", s.handleIgnoreAll)
	mux.HandleFunc("DELETE /api/insights/ignore", s.handleUnignore)

	mux.HandleFunc("GET /api/budgets", s.handleBudgetReport)
	mux.HandleFunc("PUT /api/budgets", s.handleSetBudget)
	mux.HandleFunc("DELETE /api/budgets", s.handleDeleteBudget)

	tracer := trace.NewMiddleware(s.resolver.ClientIP)
	handler := security.Headers(security.DefaultHeadersConfig())(
		s.limiter.Middleware(s.resolver.ClientIP)(
			tracer.Middleware(
				log.Middleware(s.logger)(mux))))

	s.Server = http.Server{
		Addr:              config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.cacheManager.StartCleanup(10 * time.Minute)
	return s
}

// invalidateAggregates purges every aggregate cache. Imports, edits, budget
// and ignore-list changes all route through here.
func (s *Server) invalidateAggregates() {
	s.overviewCache.Purge()
	s.rollupCache.Purge()
	s.averagesCache.Purge()
	s.insightsCache.Purge()
}

// Shutdown stops the background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

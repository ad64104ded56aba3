// Package http exposes the JSON API: balance and category aggregates,
// expense and investment mutations, budgets and catalog reads. Aggregate
// reads go through per-family query caches that mutations invalidate.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"saldo/internal/cache"
	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/currency"
	"saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
)

// BalanceReader computes aggregates over a date range.
type BalanceReader interface {
	Balance(ctx context.Context, rng core.Range) (core.BalanceData, error)
	CategoryTotals(ctx context.Context, rng core.Range) ([]core.CategoryTotal, error)
}

// ExpenseManager handles expense mutations.
type ExpenseManager interface {
	Create(ctx context.Context, in services.CreateExpenseInput) (core.Expense, error)
	Delete(ctx context.Context, id string) error
}

// InvestmentManager handles investment reads and mutations.
type InvestmentManager interface {
	Create(ctx context.Context, in services.CreateInvestmentInput) (core.InvestmentTransaction, error)
	List(ctx context.Context, rng core.Range) ([]core.InvestmentTransaction, error)
	Accounts(ctx context.Context) ([]core.InvestmentAccount, error)
}

// BudgetManager handles budget reads and mutations.
type BudgetManager interface {
	Create(ctx context.Context, b core.Budget) (core.Budget, error)
	Statuses(ctx context.Context, periodMonth string) ([]services.BudgetStatus, error)
}

// CatalogReader lists raw rows the API serves without aggregation.
type CatalogReader interface {
	ListExpenses(ctx context.Context, rng core.Range) ([]core.Expense, error)
	ListCategories(ctx context.Context, typ core.CategoryType) ([]core.Category, error)
}

// Deps carries the service layer the server fronts.
type Deps struct {
	Balances    BalanceReader
	Expenses    ExpenseManager
	Investments InvestmentManager
	Budgets     BudgetManager
	Catalog     CatalogReader
}

type Server struct {
	http.Server

	balances    BalanceReader
	expenses    ExpenseManager
	investments InvestmentManager
	budgets     BudgetManager
	catalog     CatalogReader

	formatter     currency.Formatter
	topCategories int

	balanceCache     *cache.QueryCache[core.BalanceData]
	expensesCache    *cache.QueryCache[[]core.Expense]
	totalsCache      *cache.QueryCache[[]core.CategoryTotal]
	investmentsCache *cache.QueryCache[[]core.InvestmentTransaction]
	cacheManager     *cache.Manager

	rateLimiter  *ratelimit.Limiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes, caches and middleware, returning a
// ready-to-run server.
func NewServer(cfg *config.Config, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		balances:    deps.Balances,
		expenses:    deps.Expenses,
		investments: deps.Investments,
		budgets:     deps.Budgets,
		catalog:     deps.Catalog,

		formatter:     currency.NewFormatter(cfg.DefaultCurrency),
		topCategories: cfg.TopCategories,

		balanceCache:     cache.NewQueryCache[core.BalanceData](cfg.CacheSize, cfg.CacheTTL),
		expensesCache:    cache.NewQueryCache[[]core.Expense](cfg.CacheSize, cfg.CacheTTL),
		totalsCache:      cache.NewQueryCache[[]core.CategoryTotal](cfg.CacheSize, cfg.CacheTTL),
		investmentsCache: cache.NewQueryCache[[]core.InvestmentTransaction](cfg.CacheSize, cfg.CacheTTL),
		cacheManager:     cache.NewManager(),

		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		logger:      logger.WithComponent(log.ComponentHTTP),
	}

	s.cacheManager.Register(s.balanceCache)
	s.cacheManager.Register(s.expensesCache)
	s.cacheManager.Register(s.totalsCache)
	s.cacheManager.Register(s.investmentsCache)
	s.cacheManager.StartCleanup(cfg.CacheCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/balance", s.withAPI(s.handleBalance))
	mux.HandleFunc("GET /api/expenses", s.withAPI(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withAPI(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withAPI(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/categories", s.withAPI(s.handleListCategories))
	mux.HandleFunc("GET /api/categories/totals", s.withAPI(s.handleCategoryTotals))
	mux.HandleFunc("GET /api/investments", s.withAPI(s.handleListInvestments))
	mux.HandleFunc("POST /api/investments", s.withAPI(s.handleCreateInvestment))
	mux.HandleFunc("GET /api/investment-accounts", s.withAPI(s.handleListAccounts))
	mux.HandleFunc("GET /api/budgets", s.withAPI(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withAPI(s.handleCreateBudget))

	s.Server = http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      trace.Middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// withAPI applies security headers and rate-limits mutations.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			ip := clientIP(r)
			if !s.rateLimiter.Allow(ip) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, ip,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		next(w, r)
	}
}

// Shutdown stops the HTTP listener and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// invalidateTransactionCaches drops cached aggregates after a write to the
// expense or investment tables. Key families fall away wholesale; the next
// read recomputes.
func (s *Server) invalidateTransactionCaches() {
	s.balanceCache.Invalidate("balance")
	s.expensesCache.Invalidate("expenses")
	s.totalsCache.Invalidate("categorytotals")
	s.investmentsCache.Invalidate("investments")
}

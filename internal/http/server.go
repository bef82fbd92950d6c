package http

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// maxJSONBytes caps bodies of requests that carry no file.
const maxJSONBytes = 64 << 10

// Config holds the HTTP layer settings.
type Config struct {
	Addr               string
	CookieSecure       bool
	RateLimitPerMinute int
	CORSOrigins        []string
	// MaxReceiptBytes bounds receipt uploads; multipart bodies may exceed it
	// by the size of the form fields.
	MaxReceiptBytes int64
}

// Services are the application services behind the API.
type Services struct {
	Users    *services.UserService
	Expenses *services.ExpenseService
	Incomes  *services.IncomeService
	Budgets  *services.BudgetService
	Reports  *services.ReportService
}

// Server is the JSON API. Handler is the full middleware chain.
type Server struct {
	http.Server
	svc    Services
	store  storage.Store
	tokens *auth.Manager
	logger *applog.Logger

	authn    *auth.Authenticator
	csrf     *security.CSRF
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	maxUpload    int64
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services, store storage.Store, tokens *auth.Manager) *Server {
	logger := applog.Default(applog.ComponentHTTP)
	s := &Server{
		svc:       svc,
		store:     store,
		tokens:    tokens,
		logger:    logger,
		authn:     auth.NewAuthenticator(tokens, store, cfg.CookieSecure),
		detector:  security.NewDetector(),
		maxUpload: cfg.MaxReceiptBytes + multipartMemory,
		started:   time.Now(),
	}
	s.csrf = security.NewCSRF(auth.SessionCookie, cfg.CookieSecure, func(w http.ResponseWriter, r *http.Request) {
		ForbiddenError("CSRF token missing or incorrect").Write(w)
	})
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Methods:           []string{http.MethodPost, http.MethodPatch, http.MethodDelete},
	})
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(newRouter(mux))

	var h http.Handler = mux
	h = s.authn.Middleware(h)
	h = s.csrf.Middleware(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "").Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = security.NewCORS(cfg.CORSOrigins).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(rt *router) {
	protected := auth.Require(func(w http.ResponseWriter, r *http.Request) {
		UnauthorizedError("Authentication required.").Write(w)
	})
	private := func(h http.HandlerFunc) http.Handler { return protected(h) }

	rt.handle(http.MethodGet, "/healthz", http.HandlerFunc(s.handleHealth))
	rt.handle(http.MethodGet, "/readyz", http.HandlerFunc(s.handleReady))
	rt.handle(http.MethodGet, "/metrics", http.HandlerFunc(s.handleMetrics))

	rt.handle(http.MethodPost, "/user/register/{$}", http.HandlerFunc(s.handleRegister))
	rt.handle(http.MethodPost, "/user/login/{$}", http.HandlerFunc(s.handleLogin))
	rt.handle(http.MethodPost, "/user/logout/{$}", private(s.handleLogout))
	rt.handle(http.MethodGet, "/user/me/{$}", private(s.handleMe))
	rt.handle(http.MethodPost, "/user/passwordStrength/{$}", http.HandlerFunc(s.handlePasswordStrength))

	rt.handle(http.MethodGet, "/profile/getUserProfile/{$}", private(s.handleGetProfile))
	rt.handle(http.MethodPost, "/profile/updateProfile/{$}", private(s.handleUpdateProfile))
	rt.handle(http.MethodPost, "/profile/changePassword/{$}", private(s.handleChangePassword))

	rt.handle(http.MethodGet, "/expense/getUserExpenses/{$}", private(s.handleListExpenses))
	rt.handle(http.MethodGet, "/expense/getExpenseById/{$}", private(s.handleGetExpense))
	rt.handle(http.MethodPost, "/expense/setExpense/{$}", private(s.handleCreateExpense))
	rt.handle(http.MethodPost, "/expense/editExpense/{$}", private(s.handleEditExpense))
	rt.handle(http.MethodPost, "/expense/deleteExpense/{$}", private(s.handleDeleteExpense))
	rt.handle(http.MethodGet, "/expense/receipt/{$}", private(s.handleReceipt))

	rt.handle(http.MethodGet, "/income/getUserIncomes/{$}", private(s.handleListIncomes))
	rt.handle(http.MethodGet, "/income/getIncomeById/{$}", private(s.handleGetIncome))
	rt.handle(http.MethodPost, "/income/setIncome/{$}", private(s.handleCreateIncome))
	rt.handle(http.MethodPost, "/income/editIncome/{$}", private(s.handleEditIncome))
	rt.handle(http.MethodPost, "/income/deleteIncome/{$}", private(s.handleDeleteIncome))

	rt.handle(http.MethodGet, "/budget/getUserBudgets/{$}", private(s.handleListBudgets))
	rt.handle(http.MethodGet, "/budget/getAllBudget/{$}", private(s.handleListBudgets))
	rt.handle(http.MethodPost, "/budget/setBudget/{$}", private(s.handleCreateBudget))
	rt.handle(http.MethodPatch, "/budget/edit/{id}/{$}", private(s.handleEditBudget))
	rt.handle(http.MethodPost, "/budget/deleteBudget/{$}", private(s.handleDeleteBudget))

	rt.handle(http.MethodGet, "/dashboard/{$}", private(s.handleDashboard))
	rt.handle(http.MethodGet, "/reports/monthly/{$}", private(s.handleMonthlyReport))
	rt.handle(http.MethodGet, "/reports/categories/{$}", private(s.handleCategoryReport))
	rt.handle(http.MethodGet, "/reports/export.csv", private(s.handleExportCSV))

	rt.finish()
}

// router registers method patterns and answers other methods on a known
// path with a JSON 405 instead of the mux's plain text one.
type router struct {
	mux     *http.ServeMux
	allowed map[string][]string
	order   []string
}

func newRouter(mux *http.ServeMux) *router {
	return &router{mux: mux, allowed: make(map[string][]string)}
}

func (rt *router) handle(method, path string, h http.Handler) {
	rt.mux.Handle(method+" "+path, h)
	if _, ok := rt.allowed[path]; !ok {
		rt.order = append(rt.order, path)
	}
	rt.allowed[path] = append(rt.allowed[path], method)
	if method == http.MethodGet {
		rt.allowed[path] = append(rt.allowed[path], http.MethodHead)
	}
}

func (rt *router) finish() {
	for _, path := range rt.order {
		methods := append([]string(nil), rt.allowed[path]...)
		sort.Strings(methods)
		allow := strings.Join(methods, ", ")
		rt.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			MethodNotAllowedError(allow).Write(w)
		})
	}
	rt.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found.").Write(w)
	})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

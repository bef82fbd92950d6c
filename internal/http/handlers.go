package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"storage": "ok"}
	if err := s.store.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

type metricsResponse struct {
	Requests  trace.Metrics             `json:"requests"`
	Security  security.DetectionMetrics `json:"security"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
	Caches    map[string]cache.Stats    `json:"caches"`
	Uptime    string                    `json:"uptime"`
}

// handleMetrics exposes request, security and cache counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(metricsResponse{
		Requests:  s.tracer.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Caches: map[string]cache.Stats{
			"expenses": s.svc.Expenses.Cache().Stats(),
			"incomes":  s.svc.Incomes.Cache().Stats(),
			"budgets":  s.svc.Budgets.Cache().Stats(),
		},
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

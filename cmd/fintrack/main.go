package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/receipts"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

const (
	shutdownTimeout    = 30 * time.Second
	cacheSweepInterval = time.Minute
	tokenPruneInterval = time.Hour
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(applog.ComponentApp, "info"))
	logger := cli.SetupLogger(applog.ComponentApp, cfg.LogLevel)

	be := cli.InitBackend(context.Background(), logger, cfg)

	// A nil *amqp.Client must not end up inside a non-nil interface.
	var events services.EventPublisher
	if be.Events != nil {
		events = be.Events
	}

	rs, err := receipts.NewLocalStorage(cfg.ReceiptDir, cfg.MaxReceiptBytes)
	if err != nil {
		logger.Error("Failed to initialize receipt storage", applog.FieldError, err, "dir", cfg.ReceiptDir)
		os.Exit(1)
	}

	budgets := services.NewBudgetService(be.Store, events, cfg.CacheTTL)
	expenses := services.NewExpenseService(be.Store, rs, events, budgets, cfg.CacheTTL)
	incomes := services.NewIncomeService(be.Store, events, cfg.CacheTTL)

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache))
	caches.Register(budgets.Cache())
	caches.Register(expenses.Cache())
	caches.Register(incomes.Cache())
	caches.StartCleanup(cacheSweepInterval)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CookieSecure:       cfg.CookieSecure,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSOrigins:        cfg.CORSOrigins,
		MaxReceiptBytes:    cfg.MaxReceiptBytes,
	}, apphttp.Services{
		Users:    services.NewUserService(be.Store, cfg.MinPasswordStrength),
		Expenses: expenses,
		Incomes:  incomes,
		Budgets:  budgets,
		Reports:  services.NewReportService(expenses, incomes, budgets),
	}, be.Store, auth.NewManager(cfg.SessionSecret, cfg.SessionTTL))

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	go worker.Every(ctx, tokenPruneInterval, "prune_revoked_tokens", func(ctx context.Context) error {
		return worker.PruneRevokedTokens(ctx, be.Store, time.Now())
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

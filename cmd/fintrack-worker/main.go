package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	memledger "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(applog.ComponentWorker, "info"))
	logger := cli.SetupLogger(applog.ComponentWorker, cfg.LogLevel)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	be := cli.InitBackend(context.Background(), logger, cfg)
	if be.Events == nil {
		logger.Error("Broker unreachable, worker cannot start", "url_set", cfg.AMQPURL != "")
		_ = be.Cleanup()
		os.Exit(1)
	}

	var ledger sheets.LedgerWriter
	if cfg.ExportEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			_ = be.Cleanup()
			os.Exit(1)
		}
		headerCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = client.EnsureHeader(headerCtx)
		cancel()
		if err != nil {
			logger.Error("Failed to prepare ledger sheet", applog.FieldError, err, "sheet", cfg.GoogleSheetName)
			_ = be.Cleanup()
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		ledger = memledger.New()
		logger.Info("Google Sheets disabled, ledger rows are kept in memory")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	lw := worker.NewLedgerWorker(be.Store, ledger)
	logger.Info("Starting fintrack-worker", "queue", cfg.AMQPQueue, "backend", cfg.DataBackend)
	if err := be.Events.Consume(ctx, lw.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

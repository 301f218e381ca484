package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kakeibo/internal/cli"
	"kakeibo/internal/log"
	"kakeibo/internal/sheets"
	gsheet "kakeibo/internal/sheets/google"
	mem "kakeibo/internal/sheets/memory"
	"kakeibo/internal/sheets/xlsx"
	"kakeibo/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker, nil)
	logger.Info("Starting kakeibo-worker", log.FieldOperation, log.OpStartup)

	app, err := cli.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		os.Exit(1)
	}

	var exporters []sheets.ReportExporter
	if cfg.ExportGoogle {
		client, err := gsheet.NewFromEnv(context.Background(), cfg.Roster)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporters = append(exporters, client)
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}
	if cfg.ExportXLSXPath != "" {
		exporters = append(exporters, xlsx.New(cfg.ExportXLSXPath, cfg.Roster))
		logger.Info("Workbook export enabled", "path", cfg.ExportXLSXPath)
	}
	if len(exporters) == 0 {
		logger.Warn("No export target configured, reports are kept in memory only")
		exporters = append(exporters, mem.New(cfg.Roster))
	}

	exportWorker := worker.NewExportWorker(app.Reports, worker.Config{Interval: cfg.ExportInterval}, exporters...)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := exportWorker.Stop(ctx); err != nil {
			logger.Error("Export worker stop failed", log.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	})

	if err := exportWorker.Start(ctx); err != nil {
		logger.Error("Failed to start export worker", log.FieldError, err)
		os.Exit(1)
	}

	if publisher := app.Backend.Publisher; publisher != nil {
		go func() {
			err := publisher.ConsumeChanges(ctx, exportWorker.HandleChange)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Change consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, relying on the periodic export", "interval", cfg.ExportInterval)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/config"
	"github.com/404Simon/splitify/internal/export"
	exportgoogle "github.com/404Simon/splitify/internal/export/google"
	exportmemory "github.com/404Simon/splitify/internal/export/memory"
	"github.com/404Simon/splitify/internal/log"
	"github.com/404Simon/splitify/internal/storage"
	"github.com/404Simon/splitify/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentWorker,
		Format:    cfg.LogFormat,
	})
	log.SetDefault(logger)

	logger.Info("starting export-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize sqlite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var journal export.JournalWriter
	switch cfg.ExportBackend {
	case "google":
		client, err := exportgoogle.New(ctx, cfg)
		if err != nil {
			logger.Error("failed to initialize google sheets export", "error", err)
			os.Exit(1)
		}
		journal = client
		logger.Info("google sheets export initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	default:
		journal = exportmemory.New()
		logger.Warn("memory export backend selected, journal entries are not persisted")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize amqp client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, journal, logger)

	logger.Info("consuming ledger events", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
		return exportWorker.HandleLedgerEvent(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ledger event consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("export-worker stopped")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/config"
	"github.com/404Simon/splitify/internal/log"
	"github.com/404Simon/splitify/internal/services"
	"github.com/404Simon/splitify/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentRecurring,
		Format:    cfg.LogFormat,
	})
	log.SetDefault(logger)

	logger.Info("starting recurring-worker")

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

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize amqp client, continuing without eventing", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	balances := services.NewBalanceService(repo, cfg.BalanceCacheSize, cfg.BalanceCacheTTL)
	processor := services.NewRecurringProcessor(repo, amqpClient, balances)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("recurring debt sweep configured",
		"interval", cfg.SweepInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	// Sweep once immediately so a restart never delays overdue
	// templates by a full interval.
	if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("initial sweep failed", "error", err)
	} else {
		logger.Info("initial sweep complete", "debts_generated", count)
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("recurring-worker stopped")
			return
		case now := <-ticker.C:
			count, err := processor.ProcessDue(ctx, now)
			if err != nil {
				logger.Error("sweep failed", "error", err)
				continue
			}
			logger.Info("sweep complete",
				"debts_generated", count,
				"next_sweep", now.Add(cfg.SweepInterval).Format("15:04:05"))
		}
	}
}

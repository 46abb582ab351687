package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/cache"
	"github.com/404Simon/splitify/internal/config"
	apphttp "github.com/404Simon/splitify/internal/http"
	"github.com/404Simon/splitify/internal/log"
	"github.com/404Simon/splitify/internal/services"
	"github.com/404Simon/splitify/internal/storage"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentApp,
		Format:    cfg.LogFormat,
	})
	log.SetDefault(logger)

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

	// AMQP is best-effort: without it the ledger still works, events
	// just never reach the export pipeline.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize amqp client, continuing without eventing", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("amqp client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	balances := services.NewBalanceService(repo, cfg.BalanceCacheSize, cfg.BalanceCacheTTL)

	cacheManager := cache.NewManager()
	cacheManager.Register(balances.Cache())
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Storage:           repo,
		Debts:             services.NewDebtService(repo, amqpClient, balances),
		Transactions:      services.NewTransactionService(repo, amqpClient, balances),
		Balances:          balances,
		Recurring:         services.NewRecurringService(repo),
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

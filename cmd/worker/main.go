// Package main runs works housekeeping once and exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abbakari/works/internal/config"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/auth_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/notification_repo"
	"github.com/abbakari/works/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Worker.Timeout)
	defer cancel()

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 1
	poolCfg.ApplicationName = "works-worker"

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	worker := NewWorker(Jobs{
		Tokens:        auth_repo.NewTokenRepo(txm),
		Notifications: notification_repo.NewNotificationRepo(txm),
		Idempotency:   postgres.NewIdempotencyStore(txm, cfg.Server.IdempotencyTTL),
	}, cfg.Worker, log)

	log.Info("housekeeping started")
	if err := worker.Run(ctx); err != nil {
		log.Errorw("housekeeping finished with errors", "error", err)
		pool.Close()
		os.Exit(1)
	}
	log.Info("housekeeping finished")
}

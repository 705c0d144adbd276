// Package main is the entry point for the recipecost background worker.
// It removes expired idempotency keys from PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"recipecost/internal/config"
	"recipecost/internal/infrastructure/storage/postgres"
	"recipecost/pkg/logger"
)

const cleanupInterval = time.Hour

// KeyCleaner deletes idempotency keys whose TTL has passed.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for the worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting recipecost worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 0
	poolCfg.ApplicationName = "recipecost-worker"

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	store := postgres.NewIdempotencyStore(postgres.NewTxManager(pool), cfg.IdempotencyTTL)
	worker := NewWorker(store, cleanupInterval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs periodic maintenance jobs.
type Worker struct {
	keys     KeyCleaner
	interval time.Duration
	log      *logger.Logger
}

func NewWorker(keys KeyCleaner, interval time.Duration, log *logger.Logger) *Worker {
	return &Worker{
		keys:     keys,
		interval: interval,
		log:      log.WithComponent("worker"),
	}
}

// Run cleans up once immediately and then on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.cleanupIdempotency(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanupIdempotency(ctx)
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	count, err := w.keys.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		}
		return
	}

	if count > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", count)
	}
}

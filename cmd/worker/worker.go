package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abbakari/works/internal/config"
	"github.com/abbakari/works/pkg/logger"
)

// TokenCleaner removes expired refresh tokens.
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// NotificationPurger deletes old read notifications.
type NotificationPurger interface {
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

// KeyCleaner drops expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Jobs groups the stores a run maintains.
type Jobs struct {
	Tokens        TokenCleaner
	Notifications NotificationPurger
	Idempotency   KeyCleaner
}

// Worker runs housekeeping once. Scheduling belongs to the host
// (cron, a Kubernetes CronJob).
type Worker struct {
	jobs Jobs
	cfg  config.WorkerConfig
	log  *logger.Logger
	now  func() time.Time
}

func NewWorker(jobs Jobs, cfg config.WorkerConfig, log *logger.Logger) *Worker {
	return &Worker{
		jobs: jobs,
		cfg:  cfg,
		log:  log.WithComponent("worker"),
		now:  time.Now,
	}
}

// Run executes every job, continuing past failures. The returned error
// joins every job failure.
func (w *Worker) Run(ctx context.Context) error {
	var errs []error

	n, err := w.jobs.Tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("token cleanup: %w", err))
	} else if n > 0 {
		w.log.Infow("cleaned up expired sessions", "count", n)
	}

	if w.jobs.Idempotency != nil {
		keys, err := w.jobs.Idempotency.CleanupExpired(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("idempotency cleanup: %w", err))
		} else if keys > 0 {
			w.log.Infow("cleaned up idempotency keys", "count", keys)
		}
	}

	if w.cfg.NotificationRetention > 0 {
		purged, err := w.jobs.Notifications.PurgeRead(ctx, w.now().Add(-w.cfg.NotificationRetention))
		if err != nil {
			errs = append(errs, fmt.Errorf("notification purge: %w", err))
		} else if purged > 0 {
			w.log.Infow("purged read notifications", "count", purged)
		}
	}

	return errors.Join(errs...)
}

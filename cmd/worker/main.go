package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientsrepo "itad_portal_backend/internal/clients/repository"
	clientsvc "itad_portal_backend/internal/clients/service"
	"itad_portal_backend/internal/email"
	jobsrepo "itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/internal/notification"
	"itad_portal_backend/internal/scheduler"
	"itad_portal_backend/platform/config"
	"itad_portal_backend/platform/db"
	"itad_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if !cfg.IsEmailEnabled() {
		log.Warn("SMTP_HOST not configured; job notifications will be dropped")
	}

	// The worker only delivers; it never enqueues, so no task queue is set.
	notifier := notification.New(
		jobsrepo.New(pool),
		clientsvc.New(clientsrepo.New(pool)),
		email.NewSender(cfg),
		log,
	)

	worker, err := scheduler.NewWorker(cfg, notifier, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	if err := worker.Run(ctx); err != nil {
		panic("worker stopped: " + err.Error())
	}
	log.Info("worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

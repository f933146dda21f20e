package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"itad_portal_backend/internal/adapters"
	"itad_portal_backend/internal/adapters/storage"
	"itad_portal_backend/internal/clients"
	"itad_portal_backend/internal/documents"
	"itad_portal_backend/internal/email"
	"itad_portal_backend/internal/events"
	"itad_portal_backend/internal/exports"
	apphttp "itad_portal_backend/internal/http"
	"itad_portal_backend/internal/http/router"
	"itad_portal_backend/internal/jobs"
	jobsrepo "itad_portal_backend/internal/jobs/repository"
	jobsvc "itad_portal_backend/internal/jobs/service"
	"itad_portal_backend/internal/notification"
	"itad_portal_backend/internal/scheduler"
	"itad_portal_backend/internal/taxonomy"
	"itad_portal_backend/migrations"
	"itad_portal_backend/platform/cache"
	"itad_portal_backend/platform/config"
	"itad_portal_backend/platform/db"
	"itad_portal_backend/platform/logger"
	"itad_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	taskQueue, closeQueue := initTaskQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for job documents and signatures (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "job-documents", cfg.GetMinioBucketJobDocuments())
	log.Info("storage service initialized", "jobDocumentsBucket", cfg.GetMinioBucketJobDocuments())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	clientsModule := clients.NewModule(pool)

	taxonomyModule, err := taxonomy.NewModule(pool, redisClient, cfg, log)
	if err != nil {
		log.Error("failed to initialize taxonomy module", "error", err)
		panic("failed to initialize taxonomy module: " + err.Error())
	}

	documentsModule := documents.NewModule(pool, storageSvc, cfg.GetMinioBucketJobDocuments(), val, log)

	jobsRepo := jobsrepo.New(pool)
	jobsModule := jobs.NewModule(jobsRepo, jobsvc.Deps{
		Docs:     adapters.NewSignatureStore(documentsModule.Service()),
		Clients:  adapters.NewClientDefaults(clientsModule.Service()),
		Taxonomy: taxonomyModule.Service(),
		Bus:      eventBus,
		Config:   cfg,
		Log:      log,
	}, val)

	// Documents check job access through the lifecycle (breaks circular dependency)
	documentsModule.SetJobGuard(adapters.NewJobDocumentGuard(jobsModule.Lifecycle()))

	exportsModule := exports.NewModule(
		jobsModule.Lifecycle(),
		jobsModule.Inventory(),
		taxonomyModule.Service(),
		documentsModule.Service(),
		log,
	)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(jobsRepo, clientsModule.Service(), email.NewSender(cfg), log)
	if taskQueue != nil {
		notificationModule.SetTaskQueue(taskQueue)
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			clientsModule,
			taxonomyModule,
			jobsModule,
			documentsModule,
			exportsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Let in-flight event handlers finish before the pool closes.
		eventBus.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}

// initRedis connects to Redis when configured. Redis only backs the taxonomy
// cache here, so a failed connection degrades to database lookups.
func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; taxonomy cache is process-local")
		return nil
	}

	client, err := cache.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; continuing without shared cache", "error", err)
		return nil
	}
	return client
}

func initTaskQueue(cfg config.RedisConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; job notifications are sent inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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

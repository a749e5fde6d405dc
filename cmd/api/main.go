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

	"trialbridge/internal/docparse"
	"trialbridge/internal/email"
	"trialbridge/internal/events"
	apphttp "trialbridge/internal/http"
	"trialbridge/internal/http/router"
	"trialbridge/internal/intake"
	intakedomain "trialbridge/internal/intake/domain"
	"trialbridge/internal/notification"
	"trialbridge/internal/scheduler"
	"trialbridge/internal/session"
	"trialbridge/internal/site"
	"trialbridge/internal/storage"
	"trialbridge/internal/trials"
	trialsdomain "trialbridge/internal/trials/domain"
	trialsrepo "trialbridge/internal/trials/repository"
	"trialbridge/platform/config"
	"trialbridge/platform/db"
	"trialbridge/platform/logger"
	"trialbridge/platform/redisconn"
	"trialbridge/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

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

	health := healthChecks{}

	pool := initDatabase(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
		health = append(health, pool.Ping)
	}

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		health = append(health, func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	intakeCatalog, err := intakedomain.DefaultCatalog()
	if err != nil {
		log.Error("failed to load intake catalog", "error", err)
		panic("failed to load intake catalog: " + err.Error())
	}

	trialCatalog, err := loadTrialCatalog(ctx, pool, log)
	if err != nil {
		log.Error("failed to load trial catalog", "error", err)
		panic("failed to load trial catalog: " + err.Error())
	}
	log.Info("trial catalog loaded", "trials", trialCatalog.Len())

	archive := initArchive(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	var store session.Store
	if redisClient != nil {
		store = session.NewRedisStore(redisClient, cfg.GetSessionTTL())
	} else {
		store = session.NewMemoryStore(cfg.GetSessionCacheSize(), cfg.GetSessionTTL())
		log.Warn("REDIS_URL not configured; session state kept in process memory")
	}
	sessionModule := session.NewModule(session.NewManager(cfg, store, log))

	// Notification module subscribes to domain events (not HTTP-facing)
	enqueuer, closeEnqueuer := initEnqueuer(cfg, intakeCatalog, log)
	if closeEnqueuer != nil {
		defer closeEnqueuer()
	}
	notification.New(enqueuer, log).RegisterHandlers(eventBus)

	intakeModule := intake.NewModule(intakeCatalog, store, eventBus, val, log)
	trialsModule := trials.NewModule(trialCatalog, store, eventBus, cfg, val, log)
	docparseModule := docparse.NewModule(cfg, archive, eventBus, log)
	siteModule := site.NewModule()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:            cfg,
		Logger:            log,
		EventBus:          eventBus,
		SessionMiddleware: sessionModule.Manager().Middleware(),
		Modules: []apphttp.Module{
			sessionModule,
			intakeModule,
			trialsModule,
			docparseModule,
			siteModule,
		},
	}
	if len(health) > 0 {
		app.Health = health
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
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}

	// let in-flight event handlers finish before the process exits
	eventBus.Wait()
}

// healthChecks pings every configured backing service.
type healthChecks []func(ctx context.Context) error

func (h healthChecks) Ping(ctx context.Context) error {
	for _, ping := range h {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) *pgxpool.Pool {
	if !cfg.IsDatabaseEnabled() {
		log.Warn("DATABASE_URL not configured; serving the built-in trial catalog")
		return nil
	}

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
	log.Info("database connection established")

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	return pool
}

func initRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if !cfg.IsRedisEnabled() {
		return nil
	}

	var client *redis.Client
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := redisconn.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis connection established")
	return client
}

// loadTrialCatalog reads trials from Postgres, seeding the built-in set into
// an empty table. Without a database the built-in set is served directly.
func loadTrialCatalog(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) (*trialsdomain.Catalog, error) {
	if pool == nil {
		repo, err := trialsrepo.NewEmbedded()
		if err != nil {
			return nil, err
		}
		return trialsrepo.LoadCatalog(ctx, repo)
	}

	defaults, err := trialsdomain.DefaultTrials()
	if err != nil {
		return nil, err
	}

	repo := trialsrepo.New(pool)
	seeded, err := repo.Seed(ctx, defaults)
	if err != nil {
		return nil, fmt.Errorf("seed trials: %w", err)
	}
	if seeded > 0 {
		log.Info("seeded trial catalog", "trials", seeded)
	}

	return trialsrepo.LoadCatalog(ctx, repo)
}

func initArchive(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.Archiver {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; parsed documents are not archived")
		return nil
	}

	archive, err := storage.NewMinIOArchive(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	if err := withRetry(ctx, log, "ensure documents bucket", 5, 2*time.Second, func() error {
		return archive.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", archive.Bucket())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "documentsBucket", archive.Bucket())

	return archive
}

// initEnqueuer queues follow-up work on asynq when Redis is configured and
// otherwise runs it inline in the API process.
func initEnqueuer(cfg *config.Config, catalog *intakedomain.Catalog, log *logger.Logger) (scheduler.Enqueuer, func()) {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; notifications run inline")
		handlers := scheduler.NewHandlers(email.NewSender(cfg), catalog, cfg.GetIntakeNotifyEmail(), log)
		return scheduler.NewInline(handlers), nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
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

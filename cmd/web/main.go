package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"pondok-keuangan/internal/cache"
	"pondok-keuangan/internal/config"
	"pondok-keuangan/internal/database"
	"pondok-keuangan/internal/metrics"
	"pondok-keuangan/internal/repository"
	"pondok-keuangan/internal/router"
	"pondok-keuangan/internal/service"
	"pondok-keuangan/internal/storage"
	"pondok-keuangan/internal/utils"
	"pondok-keuangan/internal/worker"
)

// sessionStore is what the Redis and in-memory stores both provide.
type sessionStore interface {
	service.SessionStore
	service.SubmitGuard
}

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	repo, closeDB, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer closeDB()

	// Initialize Redis (optional - submit guard, token revocation and background jobs)
	var sessions sessionStore
	redisClient, err := database.NewRedis(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, using in-memory session store")
		sessions = cache.NewMemoryStore()
	} else {
		defer redisClient.Close()
		sessions = cache.NewRedisStore(redisClient)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open evidence storage")
	}

	cleaner, closeCleaner := newCleaner(cfg, redisClient, store, log)
	defer closeCleaner()

	loc := cfg.Location()
	authService := service.NewAuthService(repo, sessions, cfg, log)
	svc := router.Services{
		Auth:    authService,
		Periode: service.NewPeriodeService(repo, loc, log),
		Pondok:  service.NewPondokService(repo, cleaner, log),
		Dokumen: service.NewDokumenService(repo, store, sessions, cleaner, metrics.New(prometheus.DefaultRegisterer), log,
			service.DokumenOptions{GuardTTL: cfg.SubmitGuardTTL, MaxUploadSize: int64(cfg.UploadMaxSize)}),
		Rekap: service.NewRekapService(repo, service.NewExcelService(), loc, cfg.TrendMonthsBack, log),
	}

	if cfg.BootstrapAdminEmail != "" {
		user, created, err := authService.BootstrapAdmin(ctx, cfg.BootstrapAdminName, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			log.WithError(err).Fatal("Failed to bootstrap admin pusat")
		}
		log.WithFields(logrus.Fields{"user_id": user.ID, "created": created}).Info("Admin pusat ready")
	}

	go logSessionEvents(ctx, authService, log)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    cfg.UploadMaxSize + 1<<20,
		ErrorHandler: router.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	opts := router.Options{
		AppName:  cfg.AppName,
		Ping:     repo.Ping,
		Gatherer: prometheus.DefaultGatherer,
	}
	if cfg.StorageDriver == "local" {
		opts.FilesRoot = cfg.UploadPath
	}

	// Setup routes
	router.Setup(app, svc, opts)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("Gracefully shutting down...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// Start server
	port := fmt.Sprintf(":%s", cfg.AppPort)
	log.WithField("addr", port).Info("Server starting")
	if err := app.Listen(port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}

	log.Info("Server exited")
}

// openRepository connects to MySQL. Only in development does a failed
// connection fall back to the in-memory repository.
func openRepository(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*repository.Repository, func(), error) {
	db, err := database.NewMySQL(ctx, cfg)
	if err != nil {
		if !cfg.IsDevelopment() {
			return nil, nil, err
		}
		log.WithError(err).Warn("Failed to connect to database, using in-memory repository")
		return repository.NewMemory(), func() {}, nil
	}
	return repository.New(db), func() { _ = db.Close() }, nil
}

// newCleaner enqueues cleanups for the worker when Redis is available and
// deletes inline otherwise.
func newCleaner(cfg *config.Config, rdb *redis.Client, store storage.EvidenceStore, log *logrus.Logger) (service.OrphanCleaner, func()) {
	if rdb == nil {
		return worker.NewDirectCleaner(store, log), func() {}
	}
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.AsynqRedisAddr,
		Password: cfg.AsynqRedisPassword,
		DB:       cfg.AsynqRedisDB,
	})
	return worker.NewEnqueuer(client, cfg.CleanupDelay), func() { _ = client.Close() }
}

func logSessionEvents(ctx context.Context, auth *service.AuthService, log *logrus.Logger) {
	events, err := auth.Subscribe(ctx)
	if err != nil {
		log.WithError(err).Warn("Session events unavailable")
		return
	}
	for ev := range events {
		log.WithFields(logrus.Fields{
			"event":   ev.Type,
			"user_id": ev.UserID,
		}).Info("Session event")
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fame-api/internal/api"
	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/database"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/seed"
	"github.com/fame-api/internal/service"
	"github.com/fame-api/internal/storage"
	"github.com/fame-api/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize logger
	log := logger.New(logger.FromEnv("fame-api"))
	log.Info().Msg("Starting FAME API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Format == "pretty",
		Service: "fame-api",
		Out:     os.Stdout,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// The postgres backend needs a database and its migrations
	var sqlDB *sql.DB
	var health api.HealthChecker
	if cfg.Storage.Backend == "postgres" {
		db, err := database.Connect(ctx, &cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		sqlDB = db.DB
		health = db
	}

	backends, err := storage.Open(ctx, cfg.Storage, sqlDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer backends.Close()
	log.Info().
		Str("documents", cfg.Storage.Backend).
		Str("media", cfg.Storage.MediaBackend).
		Msg("Storage ready")

	// Initialize repositories
	repos := repository.New(backends.Documents)

	// Realtime fan-out: local hub, shared through Redis when configured
	hub := realtime.NewHub(log, cfg.Server.AllowedOrigins)
	defer hub.Close()

	var publisher realtime.Publisher = hub
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}

		bridge := realtime.NewRedisBridge(rdb, hub, log)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Realtime bridge stopped")
			}
		}()
		publisher = bridge
		log.Info().Msg("Realtime events shared through Redis")
	}

	// Initialize services
	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	services := service.NewServices(repos, backends.Media, publisher, sessions, cfg, log)

	if err := services.Auth.EnsureSuperAdmin(ctx, cfg.Auth.SuperAdminEmail, cfg.Auth.SuperAdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to create super admin")
	}

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load seed file")
		}
		res, err := seed.Apply(ctx, services, f, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to apply seed file")
		}
		log.Info().
			Int("events_created", res.EventsCreated).
			Int("users_created", res.UsersCreated).
			Msg("Seed applied")
	}

	// Start background job processor
	go services.Job.StartProcessor(ctx)
	log.Info().Msg("Background job processor started")

	// Initialize router
	router := api.NewRouter(services, cfg, api.Options{Hub: hub, Redis: rdb, Database: health}, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop job processor
	services.Job.StopProcessor()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stop()

	log.Info().Msg("Server exited gracefully")
}

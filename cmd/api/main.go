// Package main is the entry point for the repair-offers-service API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"repair-offers-service/internal/app/service"
	"repair-offers-service/internal/config"
	"repair-offers-service/internal/domain"
	"repair-offers-service/internal/infra/postgres"
	"repair-offers-service/internal/infra/postgres/migrations"
	"repair-offers-service/internal/infra/provider/registry"
	rediscache "repair-offers-service/internal/infra/redis"
	"repair-offers-service/internal/logger"
	"repair-offers-service/internal/transport/httpserver"
	"repair-offers-service/internal/validator"
	"repair-offers-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting repair-offers-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create favorites repository
	repo := postgres.NewRepository(db)

	// Build marketplace providers from config
	providers, err := registry.Build(cfg.Provider, log.Logger)
	if err != nil {
		log.Fatal("failed to build providers", zap.Error(err))
	}
	log.Info("providers configured", zap.Strings("sources", cfg.Provider.Enabled))

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Create cache implementation (optional, based on config)
	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
		log.Info("result cache enabled",
			zap.Duration("ttl", cfg.Cache.TTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("result cache disabled")
	}

	// Create image enricher (optional, based on config)
	var enricher *service.ImageEnricher
	if cfg.Enrich.Enabled {
		enricher = service.NewImageEnricher(
			service.EnricherConfig{
				Workers:      cfg.Enrich.Workers,
				MaxPerSearch: cfg.Enrich.MaxPerSearch,
				Timeout:      cfg.Enrich.Timeout,
				CacheTTL:     cfg.Enrich.TTL,
			},
			cache,
			log.Logger,
		)
		log.Info("image enrichment enabled",
			zap.Int("workers", cfg.Enrich.Workers),
			zap.Int("max_per_search", cfg.Enrich.MaxPerSearch),
		)
	}

	// Create distributed locker for favorite toggles
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Create services
	searchSvc := service.NewSearchService(providers, cache, enricher, cfg.Cache.TTL, log.Logger)
	favoritesSvc := service.NewFavoritesService(repo, distLocker, log.Logger)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: 1024 * 1024, // 1MB
			Debug:     cfg.App.Debug,
			Sources:   cfg.Provider.Enabled,
		},
		searchSvc,
		favoritesSvc,
		db,
		redisClient,
		v,
		log.Logger,
	)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/nutriscan/backend/config"
	httpDelivery "github.com/nutriscan/backend/internal/delivery/http"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/cache"
	"github.com/nutriscan/backend/internal/infrastructure/lookup"
	"github.com/nutriscan/backend/internal/infrastructure/quota"
	"github.com/nutriscan/backend/internal/pkg/logging"
	"github.com/nutriscan/backend/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Server.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting nutriscan backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	// Daily quota store: sqlite when a path is configured, in-memory otherwise
	var quotaStore domain.QuotaStore
	if cfg.Quota.DBPath != "" {
		sqliteStore, err := quota.New(cfg.Quota.DBPath)
		if err != nil {
			logger.Fatal("failed to open quota store", zap.Error(err))
		}
		defer sqliteStore.Close()
		quotaStore = sqliteStore
	} else {
		logger.Warn("no quota db path configured, daily counts reset with the process")
		quotaStore = quota.NewMemory()
	}

	// Persistent cache tier is optional; without it only the memory tier runs
	var persistentCache domain.CacheStore
	if cfg.Cache.RedisEnabled {
		redisStore, err := cache.NewRedisStore(
			cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis cache tier", zap.Error(err))
		}
		defer redisStore.Close()
		persistentCache = redisStore
		logger.Info("redis cache tier enabled", zap.String("addr", cfg.Cache.RedisAddr))
	}

	memoryCache := cache.NewMemoryCache(cfg.Cache.MemoryMaxEntries, cfg.Cache.MemoryMaxBytes)
	lookupCache := usecase.NewLookupCache(memoryCache, persistentCache, logger)

	limiter := usecase.NewRateLimiter(quotaStore, usecase.RateLimiterConfig{
		Window:     cfg.RateLimit.Window,
		PerWindow:  cfg.RateLimit.PerWindow,
		DailyLimit: cfg.RateLimit.DailyLimit,
	}, logger)

	client := lookup.NewClient(lookup.Config{
		APIKey:            cfg.Lookup.APIKey,
		BaseURL:           cfg.Lookup.BaseURL,
		Timeout:           cfg.Lookup.Timeout,
		RequestsPerMinute: cfg.Lookup.RequestsPerMinute,
	}, logger)
	if cfg.Lookup.APIKey == "" {
		logger.Warn("lookup API key not configured, lookups will fail until it is set")
	}

	narrator := usecase.NewProgressNarrator()
	service := usecase.NewLookupService(limiter, lookupCache, client, narrator, logger)
	normalizer := usecase.NewTextNormalizer(logger)

	handler := httpDelivery.NewHandler(service, narrator, normalizer)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

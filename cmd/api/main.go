package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"real-estate-marketplace/internal/cache"
	"real-estate-marketplace/internal/config"
	"real-estate-marketplace/internal/database"
	"real-estate-marketplace/internal/handlers"
	"real-estate-marketplace/internal/logger"
	"real-estate-marketplace/internal/notify"
	"real-estate-marketplace/internal/ratelimit"
	"real-estate-marketplace/internal/reviews"
	"real-estate-marketplace/internal/scheduler"
	"real-estate-marketplace/internal/search"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", configPath, err)
	}
	applyEnvOverrides(appConfig)

	zapLogger, err := logger.NewLogger(appConfig.Logging.Env, appConfig.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger.Info("Loaded configuration", zap.String("path", configPath))

	gormDB, err := database.NewGormDB(appConfig.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.String("type", appConfig.Database.Type), zap.Error(err))
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		zapLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newCacheStore(ctx, appConfig.Cache, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize cache", zap.String("driver", appConfig.Cache.Driver), zap.Error(err))
	}
	defer closeStore()

	searchService := search.NewService(gormDB.DB(), store, search.Options{
		Pagination: search.Pagination{
			DefaultPerPage: appConfig.Search.DefaultPerPage,
			MaxPerPage:     appConfig.Search.MaxPerPage,
		},
		CacheTTL:     appConfig.Cache.SearchTTL(),
		NearbyRadius: appConfig.Search.NearbyRadius,
		NearbyLimit:  appConfig.Search.NearbyLimit,
		SimilarLimit: appConfig.Search.SimilarLimit,
	}, zapLogger.Named("search"))
	reviewService := reviews.NewService(gormDB.DB(), store, appConfig.Cache.SummaryTTL(), zapLogger.Named("reviews"))

	// Suggestions prefer Meilisearch and fall back to the database
	var suggester search.Suggester = search.NewDBSuggester(gormDB.DB())
	var indexer handlers.LocationIndexer
	if host := appConfig.Search.Meilisearch.Host; host != "" {
		locationIndex := search.NewLocationIndex(host, appConfig.Search.Meilisearch.APIKey)
		if err := locationIndex.InitIndex(); err != nil {
			zapLogger.Warn("Failed to initialize location index", zap.String("host", host), zap.Error(err))
		}
		suggester = search.NewFallbackSuggester(locationIndex, suggester, zapLogger.Named("suggest"))
		indexer = locationIndex
	}

	var runner handlers.SavedSearchRunner
	if appConfig.SavedSearches.Enabled {
		publisher := newPublisher(appConfig.Messaging, zapLogger)
		defer publisher.Close()

		appScheduler := scheduler.NewScheduler(gormDB, searchService, publisher, appConfig, zapLogger.Named("scheduler"))
		if err := appScheduler.Start(); err != nil {
			zapLogger.Warn("Failed to start scheduler", zap.Error(err))
		}
		defer appScheduler.Stop()
		runner = appScheduler
	}

	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	go sweepRateLimiter(ctx, rateLimiter, zapLogger)
	zapLogger.Info("Rate limiter initialized",
		zap.Int("per_minute", appConfig.RateLimit.RequestsPerMinute),
		zap.Int("per_hour", appConfig.RateLimit.RequestsPerHour),
		zap.Bool("enabled", appConfig.RateLimit.Enabled),
	)

	router := newRouter(routerDeps{
		config:      appConfig,
		auth:        handlers.NewAuthenticator(appConfig.Auth.JWTSecret),
		rateLimiter: rateLimiter,
		search:      handlers.NewSearchHandler(searchService, suggester, appConfig.Search.SuggestLimit, zapLogger.Named("http")),
		property:    handlers.NewPropertyHandler(searchService, reviewService, zapLogger.Named("http")),
		admin:       handlers.NewAdminHandler(gormDB, indexer, runner, zapLogger.Named("admin")),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(appConfig.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}

// newCacheStore builds the result cache selected by cfg.Driver
func newCacheStore(ctx context.Context, cfg config.CacheConfig, zapLogger *zap.Logger) (cache.Store, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		mem := cache.NewMemory(cfg.LocalMaxSize)
		return mem, mem.Stop, nil
	case "redis":
		r, err := newRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	case "memcached":
		return cache.NewMemcached(cfg.Memcached.Hosts...), func() {}, nil
	case "tiered":
		mem := cache.NewMemory(cfg.LocalMaxSize)
		var shared cache.Store
		closeShared := func() {}
		if cfg.Redis.Addr == "" {
			shared = cache.NewMemcached(cfg.Memcached.Hosts...)
		} else {
			r, err := newRedis(ctx, cfg)
			if err != nil {
				mem.Stop()
				return nil, nil, err
			}
			shared = r
			closeShared = func() { _ = r.Close() }
		}
		return cache.NewTiered(mem, shared, zapLogger.Named("cache")), func() {
			mem.Stop()
			closeShared()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func newRedis(ctx context.Context, cfg config.CacheConfig) (*cache.Redis, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return cache.NewRedis(pingCtx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// newPublisher connects to the broker, falling back to logging events
func newPublisher(cfg config.MessagingConfig, zapLogger *zap.Logger) notify.Publisher {
	if cfg.AMQPURL == "" {
		zapLogger.Info("No AMQP URL configured, saved search matches will be logged only")
		return notify.NewLogPublisher(zapLogger.Named("notify"))
	}

	publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, zapLogger.Named("notify"))
	if err != nil {
		zapLogger.Warn("Failed to connect to AMQP broker, logging matches instead", zap.Error(err))
		return notify.NewLogPublisher(zapLogger.Named("notify"))
	}
	return publisher
}

func sweepRateLimiter(ctx context.Context, rl *ratelimit.RateLimiter, zapLogger *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				zapLogger.Debug("Rate limiter swept idle clients", zap.Int("removed", n))
			}
		}
	}
}

// applyEnvOverrides lets deployment environment variables win over the file
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	cfg.Database.Type = getEnvOrConfig(cfg.Database.Type, "DB_TYPE", "mysql")

	switch cfg.Database.Type {
	case "postgres":
		pg := &cfg.Database.Postgres
		pg.Host = getEnv("DB_HOST", pg.Host)
		pg.Port = getEnvInt("DB_PORT", pg.Port)
		pg.User = getEnv("DB_USER", pg.User)
		pg.Password = getEnv("DB_PASSWORD", pg.Password)
		pg.Database = getEnv("DB_NAME", pg.Database)
	default:
		my := &cfg.Database.MySQL
		my.Host = getEnv("DB_HOST", my.Host)
		my.Port = getEnvInt("DB_PORT", my.Port)
		my.User = getEnv("DB_USER", my.User)
		my.Password = getEnv("DB_PASSWORD", my.Password)
		my.Database = getEnv("DB_NAME", my.Database)
	}

	cfg.Search.Meilisearch.Host = getEnv("MEILISEARCH_HOST", cfg.Search.Meilisearch.Host)
	cfg.Search.Meilisearch.APIKey = getEnv("MEILISEARCH_KEY", cfg.Search.Meilisearch.APIKey)
	cfg.Cache.Redis.Addr = getEnv("REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Messaging.AMQPURL = getEnv("AMQP_URL", cfg.Messaging.AMQPURL)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/crosspost/ratelimit/config"
	"github.com/crosspost/ratelimit/internal/handler"
	"github.com/crosspost/ratelimit/internal/limiter"
	"github.com/crosspost/ratelimit/internal/metrics"
	"github.com/crosspost/ratelimit/internal/middleware"
	"github.com/crosspost/ratelimit/internal/quota"
	"github.com/crosspost/ratelimit/internal/routing"
	"github.com/crosspost/ratelimit/internal/storage/memory"
	"github.com/crosspost/ratelimit/internal/storage/redis"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	store := initStorage(logger)
	m := metrics.New(prometheus.DefaultRegisterer)

	l := limiter.New(store, logger)

	matcher, err := routing.NewMatcher(config.DefaultLimit, config.Rules)
	if err != nil {
		logger.Error("invalid routing rules", "error", err)
		log.Fatal(err)
	}

	rateLimitMW := middleware.NewRateLimitMiddleware(l, matcher, m, logger)

	tracker := quota.NewTracker(quota.LinkedInRegistry(), initTier(logger), logger)
	api := handler.NewAPI(tracker, m, logger)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(rateLimitMW.Handler)
		r.Post("/api/share", api.Share)
		r.Get("/api/status", api.Status)
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		log.Fatal(err)
	}

	logger.Info("server stopped")
}

func initStorage(logger *slog.Logger) limiter.Store {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "memory"
	}

	switch storageType {
	case "redis":
		return initRedisStorage(logger)
	default:
		logger.Info("using in-memory storage")
		return memory.NewMemoryStore()
	}
}

func initRedisStorage(logger *slog.Logger) limiter.Store {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	logger.Info("connecting to Redis", "addr", redisAddr)
	rdb := goredis.NewClient(&goredis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		log.Fatal(err)
	}

	logger.Info("successfully connected to Redis")
	return redis.NewRedisStore(rdb)
}

func initTier(logger *slog.Logger) quota.Tier {
	switch os.Getenv("PROVIDER_TIER") {
	case "partner":
		return quota.TierPartner
	case "", "standard":
		return quota.TierStandard
	default:
		logger.Warn("unrecognized PROVIDER_TIER, using standard", "value", os.Getenv("PROVIDER_TIER"))
		return quota.TierStandard
	}
}

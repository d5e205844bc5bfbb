package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/turnosmed/booking-engine/internal/api/router"
	"github.com/turnosmed/booking-engine/internal/booking"
	"github.com/turnosmed/booking-engine/internal/catalog"
	appconfig "github.com/turnosmed/booking-engine/internal/config"
	"github.com/turnosmed/booking-engine/internal/http/handlers"
	"github.com/turnosmed/booking-engine/internal/identity"
	"github.com/turnosmed/booking-engine/internal/observability/metrics"
	"github.com/turnosmed/booking-engine/internal/slots"
	"github.com/turnosmed/booking-engine/internal/turnosmed"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-engine API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// TurnosMed backend client. The bearer credential rides along in the
	// request context, placed there by the identity middleware.
	backend := turnosmed.NewClient(cfg.BackendBaseURL, logger,
		turnosmed.WithTimeout(cfg.BackendTimeout),
		turnosmed.WithTokenFunc(func(ctx context.Context) string {
			return identity.FromContext(ctx).Token
		}),
	)

	// Catalog snapshot cache is optional; without Redis every load hits the
	// backend directly.
	var cache *catalog.Cache
	if redisClient := connectRedis(cfg, logger); redisClient != nil {
		cache = catalog.NewCache(redisClient, cfg.CatalogCacheTTL, logger)
	}
	bookingMetrics := metrics.NewBookingMetrics(nil)
	loader := catalog.NewLoader(backend, cache, logger, catalog.WithRecorder(bookingMetrics))
	generator := slots.NewGenerator(nil, nil)
	store := booking.NewStore(cfg.SessionTTL)

	routerCfg := &router.Config{
		Logger:             logger,
		CatalogHandler:     handlers.NewCatalogHandler(loader, logger),
		SlotsHandler:       handlers.NewSlotsHandler(loader, generator, bookingMetrics, logger),
		BookingHandler:     handlers.NewBookingHandler(store, backend, loader, bookingMetrics, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IdentityJWTSecret:  cfg.IdentityJWTSecret,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// connectRedis returns nil when no Redis address is configured or the ping
// fails; the catalog cache degrades to direct backend loads.
func connectRedis(cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, catalog cache disabled", "addr", cfg.RedisAddr, "error", err)
		return nil
	}
	logger.Info("redis connected", "addr", cfg.RedisAddr)
	return client
}

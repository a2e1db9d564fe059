package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Houeta/darkside-companion/internal/bot"
	"github.com/Houeta/darkside-companion/internal/cache"
	"github.com/Houeta/darkside-companion/internal/cart"
	"github.com/Houeta/darkside-companion/internal/config"
	"github.com/Houeta/darkside-companion/internal/httpserver"
	"github.com/Houeta/darkside-companion/internal/metrics"
	"github.com/Houeta/darkside-companion/internal/repository"
	redisrepo "github.com/Houeta/darkside-companion/internal/repository/redis"
	"github.com/Houeta/darkside-companion/internal/repository/sqlite"
	"github.com/Houeta/darkside-companion/internal/search"
	"github.com/Houeta/darkside-companion/internal/storefront"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Canceled on interrupt, which starts the graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	logger := setupLogger(cfg.Env)

	storage, err := openStorage(ctx, logger, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err = storage.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	shop, err := storefront.NewClient(logger, cfg.StoreURL, cfg.RateLimit, m)
	if err != nil {
		log.Fatalf("Failed to init storefront client: %v", err)
	}

	companion, err := bot.NewBot(ctx, logger, cfg.Tg.Token, cfg.Tg.Timeout, bot.Deps{
		Products:  shop,
		Suggester: shop,
		Storage:   storage,
		Cart:      cart.NewService(logger, shop, cfg.MoneyFormat, m),
		Cache:     cache.NewProductCache(ctx, cfg.ProductTTL),
		Search: search.Config{
			Debounce:  cfg.Search.Debounce,
			MinLength: cfg.Search.MinLength,
			Limit:     cfg.Search.Limit,
		},
		Metrics:     m,
		StoreURL:    shop.BaseURL(),
		MoneyFormat: cfg.MoneyFormat,
	})
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}

	server := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Products:  shop,
		Storage:   storage,
		Gatherer:  reg,
		Metrics:   m,
		StartTime: time.Now(),
	})

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	go companion.Start()
	go func() {
		if srvErr := server.Start(); srvErr != nil {
			logger.Error("HTTP server failed", "error", srvErr)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received. Stopping application...")

	companion.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server", "error", err)
	}

	logger.Info("Application stopped gracefully.")
}

// openStorage opens the key/value backend selected by the configuration.
func openStorage(ctx context.Context, logger *slog.Logger, cfg config.Storage) (repository.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.NewRepository(ctx, logger, cfg.Path)
	case config.DriverRedis:
		return redisrepo.NewRepository(ctx, logger, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("main.openStorage: unknown driver %q", cfg.Driver)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn, ReplaceAttr: dropTime}))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError, ReplaceAttr: dropTime}))
	logger.Error(
		"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
		slog.String("available_envs", "local, development, production"))

	return logger
}

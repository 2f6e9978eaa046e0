// Command catalog starts the catalog read service.
//
// The service serves the product grid and detail pages: GET /api/v1/products
// returns a page of products ordered by most-recently-updated first, and
// GET /api/v1/products/{sku} returns a single product. Reads are cached in
// Redis; a Kafka consumer invalidates the cache when new feeds are ingested.
//
// Usage:
//
//	go run ./cmd/catalog [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopcurated/catalog-platform/internal/catalog/cache"
	"github.com/shopcurated/catalog-platform/internal/catalog/consumer"
	"github.com/shopcurated/catalog-platform/internal/catalog/handler"
	"github.com/shopcurated/catalog-platform/internal/catalog/store"
	"github.com/shopcurated/catalog-platform/pkg/config"
	"github.com/shopcurated/catalog-platform/pkg/health"
	"github.com/shopcurated/catalog-platform/pkg/kafka"
	"github.com/shopcurated/catalog-platform/pkg/logger"
	"github.com/shopcurated/catalog-platform/pkg/metrics"
	pkgmw "github.com/shopcurated/catalog-platform/pkg/middleware"
	"github.com/shopcurated/catalog-platform/pkg/postgres"
	pkgredis "github.com/shopcurated/catalog-platform/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting catalog service", "port", cfg.Server.Port)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogStore := store.New(db)
	checker := health.NewChecker()
	checker.Register("postgres", health.PingCheck(db.Ping))

	// Redis is optional: without it reads go straight to PostgreSQL.
	var productCache *cache.ProductCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, catalog caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		productCache = cache.New(redisClient, cfg.Redis, m)
		checker.Register("redis", health.PingCheck(redisClient.Ping))
		slog.Info("catalog cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)

		// Cache invalidation rides on catalog-update events from the ingest
		// service.
		updates := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CatalogUpdates, consumer.HandleUpdates(productCache))
		go func() {
			if err := updates.Start(ctx); err != nil {
				slog.Error("catalog update consumer error", "error", err)
			}
		}()
		slog.Info("catalog update consumer started", "topic", cfg.Kafka.Topics.CatalogUpdates)
	}

	h := handler.New(catalogStore, productCache, cfg.Catalog.PageSize)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products", h.List)
	mux.HandleFunc("GET /api/v1/products/{sku}", h.Get)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = pkgmw.Metrics(m)(chain)
	}
	chain = pkgmw.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("catalog service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog service stopped")
}

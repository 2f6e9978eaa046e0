// Command ingest starts the feed ingestion HTTP service.
//
// The service accepts a feed URL via POST /api/v1/ingest, fetches the JSON
// feed, normalizes every product it contains, and commits the batch
// atomically to PostgreSQL. A catalog-update event is published to Kafka
// after each successful commit. It provides a health endpoint at GET /health.
//
// Usage:
//
//	go run ./cmd/ingest [-config configs/development.yaml]
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

	"github.com/shopcurated/catalog-platform/internal/auth/apikey"
	authmw "github.com/shopcurated/catalog-platform/internal/auth/middleware"
	"github.com/shopcurated/catalog-platform/internal/catalog/store"
	"github.com/shopcurated/catalog-platform/internal/ingest/feed"
	"github.com/shopcurated/catalog-platform/internal/ingest/handler"
	"github.com/shopcurated/catalog-platform/internal/ingest/pipeline"
	"github.com/shopcurated/catalog-platform/pkg/config"
	"github.com/shopcurated/catalog-platform/pkg/kafka"
	"github.com/shopcurated/catalog-platform/pkg/logger"
	"github.com/shopcurated/catalog-platform/pkg/metrics"
	pkgmw "github.com/shopcurated/catalog-platform/pkg/middleware"
	"github.com/shopcurated/catalog-platform/pkg/postgres"
)

// main loads configuration, connects to PostgreSQL, creates the Kafka
// producer, wires up the ingestion pipeline, and starts the HTTP server.
// Graceful shutdown is triggered by SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingest service", "port", cfg.Server.Port)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CatalogUpdates)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.CatalogUpdates)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	fetcher := feed.NewFetcher(cfg.Ingest.MaxBodyBytes)
	catalogStore := store.New(db)
	pipe := pipeline.New(fetcher, catalogStore, producer, m, cfg.Ingest.MaxProducts)
	h := handler.New(pipe)
	validator := apikey.NewValidator(db)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/ingest", h.Ingest)
	mux.HandleFunc("GET /health", h.Health)

	// The timeout middleware bounds the whole operation: fetch, normalize,
	// and commit share one deadline.
	var chain http.Handler = mux
	chain = authmw.Auth(validator)(chain)
	chain = pkgmw.Timeout(cfg.Ingest.Timeout)(chain)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("ingest service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingest service stopped")
}

// Command gateway starts the API gateway.
//
// The gateway is the single public entry point: it authenticates callers by
// API key, enforces per-key rate limits, handles CORS for the browser
// storefront, and reverse-proxies requests to the ingest and catalog
// services. API key administration is served directly from the gateway.
//
// Usage:
//
//	go run ./cmd/gateway [-config configs/development.yaml]
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
	"time"

	"github.com/shopcurated/catalog-platform/internal/auth/apikey"
	"github.com/shopcurated/catalog-platform/internal/auth/ratelimit"
	gwhandler "github.com/shopcurated/catalog-platform/internal/gateway/handler"
	"github.com/shopcurated/catalog-platform/internal/gateway/router"
	"github.com/shopcurated/catalog-platform/pkg/config"
	"github.com/shopcurated/catalog-platform/pkg/logger"
	"github.com/shopcurated/catalog-platform/pkg/postgres"
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
	slog.Info("starting api gateway", "port", cfg.Gateway.Port)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	validator := apikey.NewValidator(db)
	limiter := ratelimit.New(time.Minute)

	h := gwhandler.New(gwhandler.Config{
		IngestURL:  cfg.Gateway.IngestURL,
		CatalogURL: cfg.Gateway.CatalogURL,
	}, validator)
	slog.Info("proxying to backends",
		"ingest", cfg.Gateway.IngestURL,
		"catalog", cfg.Gateway.CatalogURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler:      router.New(h, validator, limiter),
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
	slog.Info("api gateway listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("api gateway stopped")
}

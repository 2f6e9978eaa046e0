// Package router wires up all API gateway routes and applies the middleware
// chain (RequestID → CORS → Auth → RateLimit).
package router

import (
	"net/http"

	"github.com/shopcurated/catalog-platform/internal/auth/apikey"
	authmw "github.com/shopcurated/catalog-platform/internal/auth/middleware"
	"github.com/shopcurated/catalog-platform/internal/auth/ratelimit"
	gwhandler "github.com/shopcurated/catalog-platform/internal/gateway/handler"
	gwmw "github.com/shopcurated/catalog-platform/internal/gateway/middleware"
	pkgmw "github.com/shopcurated/catalog-platform/pkg/middleware"
)

// New builds the full gateway HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /api/v1/ingest              → ingest service  (proxy)
//	GET    /api/v1/products            → catalog service (proxy)
//	GET    /api/v1/products/{sku}      → catalog service (proxy)
//	GET    /api/v1/cache/stats         → catalog service (proxy)
//	POST   /api/v1/cache/invalidate    → catalog service (proxy)
//	POST   /api/v1/admin/keys          → create API key  (direct DB)
//	GET    /api/v1/admin/keys          → list API keys   (direct DB)
//	GET    /health                     → gateway health
//
// Middleware chain (outermost first):
//
//	RequestID → CORS → Auth → RateLimit → handler
func New(h *gwhandler.Handler, validator *apikey.Validator, limiter *ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()

	// Health (unauthenticated)
	mux.HandleFunc("GET /health", h.Health)

	// Ingestion API
	mux.HandleFunc("POST /api/v1/ingest", h.ProxyIngest)

	// Catalog API
	mux.HandleFunc("GET /api/v1/products", h.ProxyCatalog)
	mux.HandleFunc("GET /api/v1/products/{sku}", h.ProxyCatalog)

	// Cache API
	mux.HandleFunc("GET /api/v1/cache/stats", h.ProxyCatalog)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.ProxyCatalog)

	// Admin API
	mux.HandleFunc("POST /api/v1/admin/keys", h.CreateAPIKey)
	mux.HandleFunc("GET /api/v1/admin/keys", h.ListAPIKeys)

	// Middleware chain — applied inside-out:
	// request → RequestID → CORS → Auth → RateLimit → mux
	var chain http.Handler = mux
	chain = gwmw.RateLimit(limiter)(chain)
	chain = authmw.Auth(validator)(chain)
	chain = gwmw.CORS(gwmw.DefaultCORSConfig())(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopcurated/catalog-platform/internal/catalog"
	"github.com/shopcurated/catalog-platform/internal/catalog/cache"
	apperrors "github.com/shopcurated/catalog-platform/pkg/errors"
	"github.com/shopcurated/catalog-platform/pkg/logger"
)

// ProductStore is the read side of the catalog store.
type ProductStore interface {
	List(ctx context.Context, limit int) ([]catalog.StoredProduct, error)
	GetBySKU(ctx context.Context, sku string) (*catalog.StoredProduct, error)
}

type Handler struct {
	store    ProductStore
	cache    *cache.ProductCache
	pageSize int
	logger   *slog.Logger
}

// New creates a catalog read handler. productCache may be nil; reads then go
// straight to the store.
func New(store ProductStore, productCache *cache.ProductCache, pageSize int) *Handler {
	return &Handler{
		store:    store,
		cache:    productCache,
		pageSize: pageSize,
		logger:   slog.Default().With("component", "catalog-handler"),
	}
}

// List handles GET /api/v1/products. The page is bounded by the configured
// page size and ordered by most-recently-updated first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	limit := h.pageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidArgument, http.StatusBadRequest,
				"limit must be a positive integer"))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	var products []catalog.StoredProduct
	var err error
	cacheHit := false
	if h.cache != nil {
		products, cacheHit, err = h.cache.ListOrCompute(ctx, limit, func() ([]catalog.StoredProduct, error) {
			return h.store.List(ctx, limit)
		})
	} else {
		products, err = h.store.List(ctx, limit)
	}
	if err != nil {
		log.Error("product list failed", "limit", limit, "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError,
			"failed to list products"))
		return
	}

	log.Debug("products listed", "count", len(products), "cache_hit", cacheHit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

// Get handles GET /api/v1/products/{sku}. A missing SKU yields the not-found
// kind, distinct from internal failures.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	sku := r.PathValue("sku")
	if sku == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidArgument, http.StatusBadRequest, "sku is required"))
		return
	}

	var product *catalog.StoredProduct
	var err error
	if h.cache != nil {
		product, _, err = h.cache.ProductOrCompute(ctx, sku, func() (*catalog.StoredProduct, error) {
			return h.store.GetBySKU(ctx, sku)
		})
	} else {
		product, err = h.store.GetBySKU(ctx, sku)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrProductNotFound) {
			h.writeError(w, err)
			return
		}
		log.Error("product fetch failed", "sku", sku, "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError,
			"failed to fetch product"))
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable,
			"caching is disabled"))
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError,
			"cache invalidation failed"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "catalog"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]any{
		"error": map[string]string{
			"kind":    apperrors.Kind(err),
			"message": apperrors.Message(err),
		},
	})
}

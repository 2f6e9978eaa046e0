package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopcurated/catalog-platform/internal/catalog"
	apperrors "github.com/shopcurated/catalog-platform/pkg/errors"
)

type fakeProductStore struct {
	products []catalog.StoredProduct
	listErr  error
	getErr   error
	gotLimit int
}

func (s *fakeProductStore) List(ctx context.Context, limit int) ([]catalog.StoredProduct, error) {
	s.gotLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit < len(s.products) {
		return s.products[:limit], nil
	}
	return s.products, nil
}

func (s *fakeProductStore) GetBySKU(ctx context.Context, sku string) (*catalog.StoredProduct, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := range s.products {
		if s.products[i].SKU == sku {
			return &s.products[i], nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrProductNotFound, http.StatusNotFound, "no product with sku %q", sku)
}

func sampleProducts(n int) []catalog.StoredProduct {
	products := make([]catalog.StoredProduct, n)
	for i := range products {
		products[i] = catalog.StoredProduct{
			Product: catalog.Product{
				SKU:   "SKU-" + string(rune('a'+i)),
				Title: "Product",
				Price: float64(i) + 0.99,
			},
			SourceURL: "https://example.com/feed.json",
			UpdatedAt: time.Now().UTC(),
		}
	}
	return products
}

func TestListReturnsProducts(t *testing.T) {
	store := &fakeProductStore{products: sampleProducts(3)}
	h := New(store, nil, 50)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Products []catalog.StoredProduct `json:"products"`
		Count    int                     `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 3 || len(body.Products) != 3 {
		t.Errorf("unexpected body: count=%d products=%d", body.Count, len(body.Products))
	}
}

func TestListHonorsLimitBelowPageSize(t *testing.T) {
	store := &fakeProductStore{products: sampleProducts(10)}
	h := New(store, nil, 50)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.gotLimit != 2 {
		t.Errorf("expected limit 2 passed to store, got %d", store.gotLimit)
	}
}

func TestListCapsLimitAtPageSize(t *testing.T) {
	store := &fakeProductStore{products: sampleProducts(3)}
	h := New(store, nil, 50)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=5000", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.gotLimit != 50 {
		t.Errorf("limit should be capped at page size 50, got %d", store.gotLimit)
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	h := New(&fakeProductStore{}, nil, 50)

	for _, limit := range []string{"abc", "0", "-1"} {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit="+limit, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected 400, got %d", limit, rec.Code)
		}
	}
}

func TestListStoreFailure(t *testing.T) {
	store := &fakeProductStore{listErr: errors.New("pq: connection reset")}
	h := New(store, nil, 50)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	assertErrorKind(t, rec, "internal")
}

func TestGetReturnsProduct(t *testing.T) {
	store := &fakeProductStore{products: sampleProducts(2)}
	h := New(store, nil, 50)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/SKU-a", nil)
	req.SetPathValue("sku", "SKU-a")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var product catalog.StoredProduct
	if err := json.NewDecoder(rec.Body).Decode(&product); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if product.SKU != "SKU-a" {
		t.Errorf("unexpected product: %+v", product)
	}
}

func TestGetUnknownSKU(t *testing.T) {
	store := &fakeProductStore{products: sampleProducts(1)}
	h := New(store, nil, 50)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil)
	req.SetPathValue("sku", "missing")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorKind(t, rec, "not-found")
}

func TestGetStoreFailure(t *testing.T) {
	store := &fakeProductStore{getErr: errors.New("pq: connection reset")}
	h := New(store, nil, 50)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/SKU-a", nil)
	req.SetPathValue("sku", "SKU-a")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	assertErrorKind(t, rec, "internal")
}

func TestCacheStatsDisabled(t *testing.T) {
	h := New(&fakeProductStore{}, nil, 50)

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "disabled" {
		t.Errorf("expected status=disabled, got %q", body["status"])
	}
}

func TestCacheInvalidateDisabled(t *testing.T) {
	h := New(&fakeProductStore{}, nil, 50)

	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	assertErrorKind(t, rec, "unavailable")
}

func assertErrorKind(t *testing.T, rec *httptest.ResponseRecorder, kind string) {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	if body.Error.Kind != kind {
		t.Errorf("kind: got %q, want %q", body.Error.Kind, kind)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/shopcurated/catalog-platform/internal/catalog"
	"github.com/shopcurated/catalog-platform/pkg/config"
	apperrors "github.com/shopcurated/catalog-platform/pkg/errors"
	"github.com/shopcurated/catalog-platform/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "catalog_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "catalog"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
	db, err := postgres.New(cfg)
	if err != nil {
		t.Skipf("skipping store test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// uniqueSKU returns a SKU that cannot collide with other test runs, and
// registers a cleanup that removes it.
func uniqueSKU(t *testing.T, db *postgres.Client, label string) string {
	t.Helper()
	sku := fmt.Sprintf("test-%s-%d", label, time.Now().UnixNano())
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM products WHERE sku = $1`, sku)
	})
	return sku
}

func strPtr(s string) *string { return &s }

func TestUpsertBatchInsertAndRead(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := New(db)
	ctx := context.Background()
	sku := uniqueSKU(t, db, "insert")

	batch := []catalog.Product{{
		SKU:         sku,
		Title:       "Test Widget",
		Price:       19.99,
		Currency:    strPtr("USD"),
		Description: strPtr("a widget"),
	}}
	if err := s.UpsertBatch(ctx, "https://example.com/feed.json", batch); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := s.GetBySKU(ctx, sku)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.Title != "Test Widget" || got.Price != 19.99 {
		t.Errorf("unexpected product: %+v", got)
	}
	if got.Currency == nil || *got.Currency != "USD" {
		t.Errorf("currency not stored: %v", got.Currency)
	}
	if got.SourceURL != "https://example.com/feed.json" {
		t.Errorf("source url not stamped: %q", got.SourceURL)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("updated_at not stamped")
	}
}

// Sub-cent prices round-trip exactly; the price column must not impose a
// fixed scale on the feed's float values.
func TestUpsertBatchPreservesPricePrecision(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := New(db)
	ctx := context.Background()
	sku := uniqueSKU(t, db, "precision")

	const price = 10.998877
	batch := []catalog.Product{{SKU: sku, Title: "Precise", Price: price}}
	if err := s.UpsertBatch(ctx, "https://example.com/feed.json", batch); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := s.GetBySKU(ctx, sku)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.Price != price {
		t.Errorf("price rounded in storage: got %v, want %v", got.Price, price)
	}
}

// A later feed that omits optional fields must not erase previously stored
// values; required fields always take the new value.
func TestUpsertBatchMergeSemantics(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := New(db)
	ctx := context.Background()
	sku := uniqueSKU(t, db, "merge")

	first := []catalog.Product{{
		SKU:         sku,
		Title:       "Original",
		Price:       10.00,
		Currency:    strPtr("USD"),
		Description: strPtr("keep me"),
	}}
	if err := s.UpsertBatch(ctx, "https://example.com/feed-1.json", first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	before, err := s.GetBySKU(ctx, sku)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	second := []catalog.Product{{
		SKU:   sku,
		Title: "Renamed",
		Price: 12.00,
	}}
	if err := s.UpsertBatch(ctx, "https://example.com/feed-2.json", second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := s.GetBySKU(ctx, sku)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.Title != "Renamed" || got.Price != 12.00 {
		t.Errorf("required fields should take the new value: %+v", got)
	}
	if got.Description == nil || *got.Description != "keep me" {
		t.Errorf("omitted description should survive: %v", got.Description)
	}
	if got.Currency == nil || *got.Currency != "USD" {
		t.Errorf("omitted currency should survive: %v", got.Currency)
	}
	if got.SourceURL != "https://example.com/feed-2.json" {
		t.Errorf("source url should follow the latest feed: %q", got.SourceURL)
	}
	if !got.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("updated_at should advance: before=%v after=%v", before.UpdatedAt, got.UpdatedAt)
	}
}

func TestGetBySKUNotFound(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := New(db)

	_, err := s.GetBySKU(context.Background(), "no-such-sku-ever")
	if !errors.Is(err, apperrors.ErrProductNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := New(db)
	ctx := context.Background()

	older := uniqueSKU(t, db, "older")
	newer := uniqueSKU(t, db, "newer")

	if err := s.UpsertBatch(ctx, "https://example.com/feed.json", []catalog.Product{
		{SKU: older, Title: "Older", Price: 1.00},
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	// Separate batches get distinct transaction timestamps.
	time.Sleep(10 * time.Millisecond)
	if err := s.UpsertBatch(ctx, "https://example.com/feed.json", []catalog.Product{
		{SKU: newer, Title: "Newer", Price: 2.00},
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	products, err := s.List(ctx, 50)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	posOlder, posNewer := -1, -1
	for i, p := range products {
		switch p.SKU {
		case older:
			posOlder = i
		case newer:
			posNewer = i
		}
	}
	if posNewer == -1 || posOlder == -1 {
		t.Fatalf("test products missing from listing (older=%d newer=%d)", posOlder, posNewer)
	}
	if posNewer > posOlder {
		t.Errorf("newer product should list first: newer at %d, older at %d", posNewer, posOlder)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

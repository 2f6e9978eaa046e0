// Package store persists products in PostgreSQL, keyed by SKU. Writes are
// merge-upserts: fields absent from a new batch survive from the previous
// write, and a whole batch commits inside one transaction or not at all.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopcurated/catalog-platform/internal/catalog"
	apperrors "github.com/shopcurated/catalog-platform/pkg/errors"
	"github.com/shopcurated/catalog-platform/pkg/postgres"
)

// upsertSQL merges one product into the catalog. COALESCE on the optional
// columns keeps previously stored values when the incoming field is NULL;
// sku, title, price, and source_url always take the new value. updated_at is
// the transaction timestamp, so every record in a batch carries the same
// server-assigned stamp.
const upsertSQL = `
	INSERT INTO products (sku, title, price, currency, url, image, description, source_url, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (sku) DO UPDATE SET
		title       = EXCLUDED.title,
		price       = EXCLUDED.price,
		currency    = COALESCE(EXCLUDED.currency, products.currency),
		url         = COALESCE(EXCLUDED.url, products.url),
		image       = COALESCE(EXCLUDED.image, products.image),
		description = COALESCE(EXCLUDED.description, products.description),
		source_url  = EXCLUDED.source_url,
		updated_at  = now()`

// Store is the catalog document store.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Store backed by the given PostgreSQL client.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "catalog-store"),
	}
}

// UpsertBatch merge-upserts every product in one transaction, stamping each
// row with sourceURL and the transaction timestamp. Either the whole batch
// commits or none of it does.
func (s *Store) UpsertBatch(ctx context.Context, sourceURL string, products []catalog.Product) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			_, err := stmt.ExecContext(ctx,
				p.SKU, p.Title, p.Price,
				nullable(p.Currency), nullable(p.URL), nullable(p.Image), nullable(p.Description),
				sourceURL,
			)
			if err != nil {
				return fmt.Errorf("upserting product %s: %w", p.SKU, err)
			}
		}
		return nil
	})
}

// List returns up to limit products ordered by most-recently-updated first.
func (s *Store) List(ctx context.Context, limit int) ([]catalog.StoredProduct, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT sku, title, price, currency, url, image, description, source_url, updated_at
		 FROM products ORDER BY updated_at DESC, sku LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	products := make([]catalog.StoredProduct, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetBySKU fetches a single product. A missing SKU reports the not-found
// kind, distinct from transport or query failures.
func (s *Store) GetBySKU(ctx context.Context, sku string) (*catalog.StoredProduct, error) {
	row := s.db.DB.QueryRowContext(ctx,
		`SELECT sku, title, price, currency, url, image, description, source_url, updated_at
		 FROM products WHERE sku = $1`,
		sku,
	)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.Newf(apperrors.ErrProductNotFound, http.StatusNotFound, "no product with sku %q", sku)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching product %s: %w", sku, err)
	}
	return &p, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (catalog.StoredProduct, error) {
	var p catalog.StoredProduct
	var currency, url, image, description sql.NullString
	err := s.Scan(
		&p.SKU, &p.Title, &p.Price,
		&currency, &url, &image, &description,
		&p.SourceURL, &p.UpdatedAt,
	)
	if err != nil {
		return catalog.StoredProduct{}, err
	}
	p.Currency = fromNullable(currency)
	p.URL = fromNullable(url)
	p.Image = fromNullable(image)
	p.Description = fromNullable(description)
	return p, nil
}

// nullable converts an optional field to sql.NullString; nil maps to NULL so
// the merge-upsert preserves the stored value.
func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

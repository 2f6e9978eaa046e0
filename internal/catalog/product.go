// Package catalog defines the canonical product model shared by the ingest
// pipeline, the document store, and the read API, plus the Kafka event schema
// emitted when the catalog changes.
package catalog

import "time"

// Product is the canonical normalized product record. SKU, Title, and Price
// are always present; the remaining fields are optional and nil when the
// source feed did not provide them.
type Product struct {
	SKU         string  `json:"sku"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Currency    *string `json:"currency,omitempty"`
	URL         *string `json:"url,omitempty"`
	Image       *string `json:"image,omitempty"`
	Description *string `json:"description,omitempty"`
}

// StoredProduct is a Product as persisted in the catalog store, stamped with
// the feed URL it was ingested from and the server-assigned write timestamp.
type StoredProduct struct {
	Product
	SourceURL string    `json:"source_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateEvent is the Kafka message payload produced after a feed batch is
// committed to the catalog store.
type UpdateEvent struct {
	SourceURL  string    `json:"source_url"`
	SKUs       []string  `json:"skus"`
	Count      int       `json:"count"`
	IngestedAt time.Time `json:"ingested_at"`
}

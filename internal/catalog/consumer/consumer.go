// Package consumer keeps the catalog read cache coherent: it subscribes to
// catalog-update events published after each ingestion commit and flushes
// the cached pages and products they invalidate.
package consumer

import (
	"context"
	"log/slog"

	"github.com/shopcurated/catalog-platform/internal/catalog"
	"github.com/shopcurated/catalog-platform/pkg/kafka"
)

// Invalidator flushes cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// HandleUpdates returns a kafka.MessageHandler that decodes catalog-update
// events and invalidates the cache. Decode failures are returned so the
// consume loop logs them without committing the offset.
func HandleUpdates(inv Invalidator) kafka.MessageHandler {
	log := slog.Default().With("component", "catalog-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[catalog.UpdateEvent](value)
		if err != nil {
			return err
		}
		log.Info("catalog updated, invalidating cache",
			"source_url", event.SourceURL,
			"count", event.Count,
		)
		return inv.Invalidate(ctx)
	}
}

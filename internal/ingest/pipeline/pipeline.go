// Package pipeline implements the feed ingestion orchestrator: a sequence of
// phases (AuthCheck → UrlValidate → Fetch → ExtractAndNormalize →
// CommitBatch → Respond) where any phase failure aborts the whole operation.
// A feed is ingested atomically or not at all.
package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopcurated/catalog-platform/internal/catalog"
	"github.com/shopcurated/catalog-platform/internal/ingest"
	"github.com/shopcurated/catalog-platform/internal/ingest/feed"
	apperrors "github.com/shopcurated/catalog-platform/pkg/errors"
	"github.com/shopcurated/catalog-platform/pkg/kafka"
	"github.com/shopcurated/catalog-platform/pkg/metrics"
)

// Store commits a normalized batch to the catalog document store. The whole
// batch must commit as one atomic unit.
type Store interface {
	UpsertBatch(ctx context.Context, sourceURL string, products []catalog.Product) error
}

// Publisher emits catalog-update events after a successful commit.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Fetcher retrieves and parses a remote JSON feed.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (any, error)
}

// Pipeline coordinates one feed ingestion per Run call. It holds no state
// between invocations; concurrent Runs are independent.
type Pipeline struct {
	fetcher     Fetcher
	store       Store
	producer    Publisher
	metrics     *metrics.Metrics
	maxProducts int
	logger      *slog.Logger
}

// New creates a Pipeline. producer and m may be nil; event publication and
// metrics are then skipped.
func New(fetcher Fetcher, store Store, producer Publisher, m *metrics.Metrics, maxProducts int) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		store:       store,
		producer:    producer,
		metrics:     m,
		maxProducts: maxProducts,
		logger:      slog.Default().With("component", "ingest-pipeline"),
	}
}

// Run executes one ingestion on behalf of principal, the authenticated
// identity attached to the request. All failures carry a stable error kind;
// no phase is retried and no partial batch is ever committed.
func (p *Pipeline) Run(ctx context.Context, principal string, rawURL string) (*ingest.Summary, error) {
	start := time.Now()
	summary, err := p.run(ctx, principal, rawURL)
	if p.metrics != nil {
		p.metrics.IngestDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.IngestionsTotal.WithLabelValues(apperrors.Kind(err)).Inc()
		} else {
			p.metrics.IngestionsTotal.WithLabelValues("ok").Inc()
			p.metrics.IngestBatchSize.Observe(float64(summary.Count))
			p.metrics.ProductsUpsertedTotal.Add(float64(summary.Count))
		}
	}
	return summary, err
}

func (p *Pipeline) run(ctx context.Context, principal string, rawURL string) (*ingest.Summary, error) {
	// AuthCheck
	if principal == "" {
		return nil, apperrors.New(apperrors.ErrUnauthenticated, http.StatusUnauthorized, "login required")
	}

	// UrlValidate — rejected before any network call.
	feedURL, err := ValidateFeedURL(rawURL)
	if err != nil {
		return nil, err
	}

	// Fetch
	fetchStart := time.Now()
	payload, err := p.fetcher.Fetch(ctx, feedURL)
	if p.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = apperrors.Kind(err)
		}
		p.metrics.FeedFetchDuration.WithLabelValues(outcome).Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		return nil, err
	}

	// ExtractAndNormalize — all-or-nothing: one malformed candidate rejects
	// the entire batch.
	raws := feed.Extract(payload)
	if len(raws) == 0 {
		return nil, apperrors.New(apperrors.ErrFailedPrecondition, http.StatusUnprocessableEntity,
			"no products found in feed payload")
	}
	if p.maxProducts > 0 && len(raws) > p.maxProducts {
		return nil, apperrors.Newf(apperrors.ErrFailedPrecondition, http.StatusUnprocessableEntity,
			"feed contains %d products, limit is %d", len(raws), p.maxProducts)
	}

	products := make([]catalog.Product, 0, len(raws))
	for i, raw := range raws {
		product, err := feed.Normalize(raw)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidSchema, http.StatusUnprocessableEntity,
				"product %d: %v", i, err)
		}
		products = append(products, product)
	}

	// CommitBatch
	if err := p.store.UpsertBatch(ctx, feedURL, products); err != nil {
		p.logger.Error("batch commit failed", "source_url", feedURL, "count", len(products), "error", err)
		return nil, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError,
			"failed to commit product batch")
	}

	skus := make([]string, len(products))
	for i, product := range products {
		skus[i] = product.SKU
	}

	// Post-commit event is best-effort: the batch is already durable, so a
	// publish failure is logged but never fails the request.
	if p.producer != nil {
		event := kafka.Event{
			Key: feedURL,
			Value: catalog.UpdateEvent{
				SourceURL:  feedURL,
				SKUs:       skus,
				Count:      len(skus),
				IngestedAt: time.Now().UTC(),
			},
		}
		if err := p.producer.Publish(ctx, event); err != nil {
			p.logger.Error("failed to publish catalog update event",
				"source_url", feedURL,
				"count", len(skus),
				"error", err,
			)
		}
	}

	p.logger.Info("feed ingested",
		"principal", principal,
		"source_url", feedURL,
		"count", len(skus),
	)
	return &ingest.Summary{OK: true, Count: len(skus), SKUs: skus}, nil
}

// ValidateFeedURL trims the supplied URL and requires an http:// or https://
// scheme, matched case-insensitively. It returns the trimmed URL.
func ValidateFeedURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", apperrors.New(apperrors.ErrInvalidArgument, http.StatusBadRequest, "missing url")
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", apperrors.New(apperrors.ErrInvalidArgument, http.StatusBadRequest,
			"url must start with http:// or https://")
	}
	return u, nil
}

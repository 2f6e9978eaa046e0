// Package cache fronts the catalog store with Redis. List pages and single
// products are cached under a shared key prefix, concurrent misses for the
// same key are collapsed with singleflight, and the whole prefix is flushed
// when the catalog changes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/shopcurated/catalog-platform/internal/catalog"
	"github.com/shopcurated/catalog-platform/pkg/config"
	"github.com/shopcurated/catalog-platform/pkg/metrics"
	pkgredis "github.com/shopcurated/catalog-platform/pkg/redis"
)

const keyPrefix = "catalog:"

// ProductCache caches catalog reads in Redis.
type ProductCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a ProductCache. m may be nil; hit/miss counters are then kept
// in-process only.
func New(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *ProductCache {
	return &ProductCache{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "product-cache"),
	}
}

// ListOrCompute returns the cached product page for limit, or computes,
// caches, and returns it. Concurrent misses for the same page run computeFn
// once.
func (c *ProductCache) ListOrCompute(
	ctx context.Context,
	limit int,
	computeFn func() ([]catalog.StoredProduct, error),
) ([]catalog.StoredProduct, bool, error) {
	key := listKey(limit)
	if products, ok := get[[]catalog.StoredProduct](c, ctx, key); ok {
		return products, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if products, ok := get[[]catalog.StoredProduct](c, ctx, key); ok {
			return products, nil
		}
		products, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, products)
		return products, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]catalog.StoredProduct), false, nil
}

// ProductOrCompute returns the cached product for sku, or computes, caches,
// and returns it. Errors (including not-found) are never cached.
func (c *ProductCache) ProductOrCompute(
	ctx context.Context,
	sku string,
	computeFn func() (*catalog.StoredProduct, error),
) (*catalog.StoredProduct, bool, error) {
	key := productKey(sku)
	if product, ok := get[*catalog.StoredProduct](c, ctx, key); ok {
		return product, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if product, ok := get[*catalog.StoredProduct](c, ctx, key); ok {
			return product, nil
		}
		product, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, product)
		return product, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*catalog.StoredProduct), false, nil
}

// Invalidate flushes every cached catalog read.
func (c *ProductCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating catalog cache: %w", err)
	}
	c.logger.Info("catalog cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the in-process hit/miss counters.
func (c *ProductCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// get fetches and decodes a cached value, recording hit/miss counters.
func get[T any](c *ProductCache, ctx context.Context, key string) (T, bool) {
	var zero T
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return zero, false
	}
	var value T
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return zero, false
	}
	c.hit()
	return value, true
}

func (c *ProductCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *ProductCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *ProductCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func listKey(limit int) string {
	return fmt.Sprintf("%slist:limit=%d", keyPrefix, limit)
}

func productKey(sku string) string {
	return keyPrefix + "sku:" + sku
}

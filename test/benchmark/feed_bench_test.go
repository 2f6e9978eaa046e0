// Package benchmark measures the hot paths of feed processing: payload
// extraction and product normalization.
//
// Run with:
//
//	go test -bench=. -benchmem ./test/benchmark/...
package benchmark

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/shopcurated/catalog-platform/internal/ingest/feed"
)

// buildFeed generates a wrapped feed payload with n products, decoded the way
// the fetcher decodes upstream bodies.
func buildFeed(b *testing.B, n int) any {
	b.Helper()
	var sb strings.Builder
	sb.WriteString(`{"products":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb,
			`{"sku":"SKU-%d","title":"Product %d","price":%d.99,"currency":"USD","url":"https://example.com/p/%d","description":"A reasonably long product description with enough text to resemble a real merchant feed entry."}`,
			i, i, i%500, i)
	}
	sb.WriteString(`]}`)

	var payload any
	if err := json.Unmarshal([]byte(sb.String()), &payload); err != nil {
		b.Fatalf("building feed: %v", err)
	}
	return payload
}

var feedSizes = []int{1, 100, 5000}

func BenchmarkExtract(b *testing.B) {
	for _, size := range feedSizes {
		payload := buildFeed(b, size)
		b.Run(fmt.Sprintf("products-%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				raws := feed.Extract(payload)
				_ = raws
			}
		})
	}
}

func BenchmarkNormalize(b *testing.B) {
	raw := map[string]any{
		"sku":         "SKU-1",
		"title":       "  Product 1  ",
		"price":       "19.99",
		"currency":    "USD",
		"url":         "https://example.com/p/1",
		"description": "A reasonably long product description with enough text to resemble a real merchant feed entry.",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p, err := feed.Normalize(raw)
		if err != nil {
			b.Fatal(err)
		}
		_ = p
	}
}

func BenchmarkNormalizeBatch(b *testing.B) {
	for _, size := range feedSizes {
		raws := feed.Extract(buildFeed(b, size))
		b.Run(fmt.Sprintf("products-%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for _, raw := range raws {
					if _, err := feed.Normalize(raw); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

func BenchmarkNormalizeParallel(b *testing.B) {
	raw := map[string]any{
		"sku":   "SKU-1",
		"title": "Product 1",
		"price": 19.99,
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := feed.Normalize(raw); err != nil {
				b.Fatal(err)
			}
		}
	})
}

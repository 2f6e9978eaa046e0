package feed

import (
	"math"
	"strings"
	"testing"
)

func TestNormalizeMinimalProduct(t *testing.T) {
	p, err := Normalize(map[string]any{
		"sku":   "SKU-1",
		"title": "Widget",
		"price": 19.99,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SKU != "SKU-1" || p.Title != "Widget" || p.Price != 19.99 {
		t.Errorf("unexpected product: %+v", p)
	}
	if p.Currency != nil || p.URL != nil || p.Image != nil || p.Description != nil {
		t.Errorf("optional fields should be nil when absent: %+v", p)
	}
}

func TestNormalizeFullProduct(t *testing.T) {
	p, err := Normalize(map[string]any{
		"sku":         "  SKU-2  ",
		"title":       "  Gadget  ",
		"price":       "12.50",
		"currency":    "EUR",
		"url":         "https://example.com/p/2",
		"image":       "https://example.com/p/2.jpg",
		"description": "  a gadget  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SKU != "SKU-2" {
		t.Errorf("sku not trimmed: %q", p.SKU)
	}
	if p.Title != "Gadget" {
		t.Errorf("title not trimmed: %q", p.Title)
	}
	if p.Price != 12.50 {
		t.Errorf("numeric string price not parsed: %v", p.Price)
	}
	if p.Currency == nil || *p.Currency != "EUR" {
		t.Errorf("currency not kept: %v", p.Currency)
	}
	if p.Description == nil || *p.Description != "a gadget" {
		t.Errorf("description not trimmed: %v", p.Description)
	}
}

// JSON feeds frequently carry numeric SKUs; they coerce to their decimal
// string form.
func TestNormalizeNumericSKU(t *testing.T) {
	p, err := Normalize(map[string]any{
		"sku":   float64(12345),
		"title": "Numeric",
		"price": 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SKU != "12345" {
		t.Errorf("numeric sku: got %q, want %q", p.SKU, "12345")
	}
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		field string
	}{
		{"not an object", "just a string", ""},
		{"nil candidate", nil, ""},
		{"missing sku", map[string]any{"title": "x", "price": 1.0}, "sku"},
		{"whitespace sku", map[string]any{"sku": "   ", "title": "x", "price": 1.0}, "sku"},
		{"boolean sku", map[string]any{"sku": true, "title": "x", "price": 1.0}, "sku"},
		{"missing title", map[string]any{"sku": "a", "price": 1.0}, "title"},
		{"empty title", map[string]any{"sku": "a", "title": "", "price": 1.0}, "title"},
		{"missing price", map[string]any{"sku": "a", "title": "x"}, "price"},
		{"non-numeric price", map[string]any{"sku": "a", "title": "x", "price": "free"}, "price"},
		{"boolean price", map[string]any{"sku": "a", "title": "x", "price": true}, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("field: got %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}

func TestNormalizeNonFinitePrice(t *testing.T) {
	for _, price := range []any{math.NaN(), math.Inf(1), math.Inf(-1), "NaN", "Inf"} {
		_, err := Normalize(map[string]any{"sku": "a", "title": "x", "price": price})
		if err == nil {
			t.Errorf("price %v: expected rejection", price)
		}
	}
}

func TestNormalizeZeroAndNegativePrices(t *testing.T) {
	// Zero and negative prices are finite numbers and pass through; pricing
	// policy is not normalization's concern.
	for _, price := range []float64{0, -5.25} {
		p, err := Normalize(map[string]any{"sku": "a", "title": "x", "price": price})
		if err != nil {
			t.Fatalf("price %v: unexpected error: %v", price, err)
		}
		if p.Price != price {
			t.Errorf("price %v: got %v", price, p.Price)
		}
	}
}

func TestNormalizeOptionalFieldTrimsToNil(t *testing.T) {
	p, err := Normalize(map[string]any{
		"sku":      "a",
		"title":    "x",
		"price":    1.0,
		"currency": "   ",
		"url":      "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Currency != nil {
		t.Errorf("whitespace currency should normalize to nil, got %q", *p.Currency)
	}
	if p.URL != nil {
		t.Errorf("empty url should normalize to nil, got %q", *p.URL)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "sku", Reason: "missing or empty"}
	if !strings.Contains(err.Error(), "sku") {
		t.Errorf("error message should name the field: %q", err.Error())
	}

	bare := &ValidationError{Reason: "product is not an object"}
	if bare.Error() != "product is not an object" {
		t.Errorf("unexpected message: %q", bare.Error())
	}
}

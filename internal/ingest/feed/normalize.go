package feed

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopcurated/catalog-platform/internal/catalog"
)

// ValidationError reports why a single raw candidate could not be normalized
// into a Product. One failing candidate rejects the whole batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Normalize validates and coerces one raw candidate into a canonical
// Product. It fails when the candidate is not an object, when sku or title
// is missing or whitespace-only, or when price is not a finite number.
// String fields are trimmed; optional fields normalize to nil when absent.
// Normalize is pure and touches nothing outside its arguments.
func Normalize(raw any) (catalog.Product, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return catalog.Product{}, &ValidationError{Reason: "product is not an object"}
	}

	sku := strings.TrimSpace(coerceString(obj["sku"]))
	if sku == "" {
		return catalog.Product{}, &ValidationError{Field: "sku", Reason: "missing or empty"}
	}
	title := strings.TrimSpace(coerceString(obj["title"]))
	if title == "" {
		return catalog.Product{}, &ValidationError{Field: "title", Reason: "missing or empty"}
	}
	price, ok := coercePrice(obj["price"])
	if !ok {
		return catalog.Product{}, &ValidationError{Field: "price", Reason: "not a finite number"}
	}

	return catalog.Product{
		SKU:         sku,
		Title:       title,
		Price:       price,
		Currency:    optionalString(obj["currency"]),
		URL:         optionalString(obj["url"]),
		Image:       optionalString(obj["image"]),
		Description: optionalString(obj["description"]),
	}, nil
}

// coerceString converts a decoded JSON value to a string. It accepts JSON
// strings as-is and JSON numbers in their shortest decimal form; booleans,
// nulls, arrays, and objects are rejected and map to "".
func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// optionalString trims a coerced string and returns a pointer to it, or nil
// when the value is absent, unsupported, or trims to empty.
func optionalString(v any) *string {
	s := strings.TrimSpace(coerceString(v))
	if s == "" {
		return nil
	}
	return &s
}

// coercePrice converts a decoded JSON value to a finite float64. It accepts
// JSON numbers and numeric strings; NaN, infinities, and every other type
// are rejected.
func coercePrice(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

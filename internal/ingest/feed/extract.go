// Package feed implements the feed ingestion primitives: fetching a JSON
// feed over HTTP, extracting raw product candidates from the three accepted
// payload shapes, and normalizing each candidate into a canonical Product.
package feed

// Extract inspects a decoded JSON payload and returns the raw product
// candidates it contains. Three shapes are accepted:
//
//	[ {...}, {...} ]            — a bare array, returned as-is
//	{ "products": [ ... ] }     — the wrapped array
//	{ ... }                     — a single object, a one-element batch
//
// Null, primitives, and strings yield no candidates. Extract never fails;
// an empty result is the orchestrator's signal that the feed had nothing
// usable.
func Extract(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		if products, ok := v["products"].([]any); ok {
			return products
		}
		return []any{v}
	default:
		return nil
	}
}

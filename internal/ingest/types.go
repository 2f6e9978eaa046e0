// Package ingest defines the request/response types of the feed ingestion
// endpoint.
package ingest

// Request is the JSON body accepted by the ingestion HTTP endpoint. URL
// points at a JSON product feed.
type Request struct {
	URL string `json:"url"`
}

// Summary is returned to the caller after a feed is committed. SKUs preserve
// the feed's extraction order.
type Summary struct {
	OK    bool     `json:"ok"`
	Count int      `json:"count"`
	SKUs  []string `json:"skus"`
}

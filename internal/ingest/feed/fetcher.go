package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/shopcurated/catalog-platform/pkg/errors"
)

const acceptHeader = "application/json, text/plain, */*"

// Fetcher performs the outbound HTTP GET against a user-supplied feed URL.
// Redirects are followed. The three failure modes are kept distinct:
// transport failures (DNS, refused connection, deadline) surface as
// unavailable, non-2xx responses and unparseable bodies as
// failed-precondition.
type Fetcher struct {
	client       *http.Client
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewFetcher creates a Fetcher. maxBodyBytes caps how much of an upstream
// response body is read; zero means no cap. The overall deadline comes from
// the caller's context, not a per-client timeout.
func NewFetcher(maxBodyBytes int64) *Fetcher {
	return &Fetcher{
		client:       &http.Client{},
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "feed-fetcher"),
	}
}

// Fetch GETs feedURL and returns the decoded JSON payload unmodified. The
// URL must already be validated by the orchestrator; shape validation is the
// extractor's job.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, http.StatusBadRequest,
			"building request for %s: %v", feedURL, err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUnavailable, http.StatusServiceUnavailable,
			"fetch failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Newf(apperrors.ErrFailedPrecondition, http.StatusUnprocessableEntity,
			"HTTP %d from %s", resp.StatusCode, feedURL)
	}

	body := io.Reader(resp.Body)
	if f.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBodyBytes)
	}

	var payload any
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		f.logger.Debug("feed body not parseable", "url", feedURL, "error", err)
		return nil, apperrors.New(apperrors.ErrFailedPrecondition, http.StatusUnprocessableEntity,
			"response was not valid JSON")
	}
	return payload, nil
}

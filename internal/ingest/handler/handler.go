package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	authmw "github.com/shopcurated/catalog-platform/internal/auth/middleware"
	"github.com/shopcurated/catalog-platform/internal/ingest"
	apperrors "github.com/shopcurated/catalog-platform/pkg/errors"
	"github.com/shopcurated/catalog-platform/pkg/logger"
)

// Runner executes one feed ingestion for the given principal and URL.
type Runner interface {
	Run(ctx context.Context, principal string, rawURL string) (*ingest.Summary, error)
}

type Handler struct {
	pipeline Runner
	logger   *slog.Logger
}

func New(pipeline Runner) *Handler {
	return &Handler{
		pipeline: pipeline,
		logger:   slog.Default().With("component", "ingest-handler"),
	}
}

// Ingest handles POST /api/v1/ingest. The body carries the feed URL; the
// principal comes from the auth middleware. Success returns the committed
// count and SKU list, failure a tagged error kind.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req ingest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidArgument, http.StatusBadRequest, "invalid JSON body"))
		return
	}

	summary, err := h.pipeline.Run(ctx, authmw.Principal(ctx), req.URL)
	if err != nil {
		log.Error("ingestion failed",
			"url", req.URL,
			"kind", apperrors.Kind(err),
			"error", err,
		)
		h.writeError(w, err)
		return
	}

	log.Info("ingestion succeeded",
		"url", req.URL,
		"count", summary.Count,
	)
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ingest"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]any{
		"error": map[string]string{
			"kind":    apperrors.Kind(err),
			"message": apperrors.Message(err),
		},
	})
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/parishyparijal/MenonMobility-sub001/internal/service"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/httputil"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/logger"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/validator"
)

// IndexHandler exposes the index maintenance endpoints.
type IndexHandler struct {
	service    *service.IndexService
	logger     *slog.Logger
	reindexing atomic.Bool
}

// NewIndexHandler creates a new index admin handler.
func NewIndexHandler(svc *service.IndexService, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{service: svc, logger: logger}
}

// IndexRequest is the JSON request body for re-indexing one listing.
type IndexRequest struct {
	ID string `json:"id" validate:"required,max=64"`
}

// Index handles POST /api/v1/search/index. The listing is reloaded from the
// store, so the body only names it.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req IndexRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.IndexByID(r.Context(), req.ID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": req.ID, "status": "indexed"}})
}

// Delete handles DELETE /api/v1/search/{id}
func (h *IndexHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "deleted"}})
}

// Reindex handles POST /api/v1/search/reindex. The rebuild runs in the
// background; a second request while one is running is a no-op.
func (h *IndexHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if !h.reindexing.CompareAndSwap(false, true) {
		httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex already running"}})
		return
	}

	ctx := context.WithoutCancel(r.Context())
	l := logger.FromContext(ctx, h.logger)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				l.ErrorContext(ctx, "background reindex panicked",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
			}
			h.reindexing.Store(false)
		}()

		n, err := h.service.Reindex(ctx)
		if err != nil {
			l.ErrorContext(ctx, "background reindex failed",
				slog.Int("indexed", n),
				slog.String("error", err.Error()),
			)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}

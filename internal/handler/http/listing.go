package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parishyparijal/MenonMobility-sub001/internal/service"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/httputil"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/slug"
)

// ListingHandler serves seller dashboard and category page listings.
type ListingHandler struct {
	service *service.ListingService
	logger  *slog.Logger
}

// NewListingHandler creates a new listing browse handler.
func NewListingHandler(svc *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{service: svc, logger: logger}
}

// BySeller handles GET /api/v1/sellers/{sellerID}/listings
func (h *ListingHandler) BySeller(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeRequestError(w, r, err, h.logger)
		return
	}

	page, err := h.service.BySeller(r.Context(), chi.URLParam(r, "sellerID"), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// ByCategory handles GET /api/v1/categories/{slug}/listings
func (h *ListingHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeRequestError(w, r, err, h.logger)
		return
	}

	page, err := h.service.ByCategory(r.Context(), slug.Generate(chi.URLParam(r, "slug")), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

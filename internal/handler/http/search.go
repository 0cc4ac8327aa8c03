package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/parishyparijal/MenonMobility-sub001/internal/service"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/httputil"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/validator"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	search  *service.SearchService
	suggest *service.SuggestService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(search *service.SearchService, suggest *service.SuggestService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		search:  search,
		suggest: suggest,
		logger:  logger,
	}
}

// SearchMeta tells the client which backend served the envelope.
type SearchMeta struct {
	Source service.Source `json:"source"`
	TookMS int64          `json:"took_ms"`
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeRequestError(w, r, err, h.logger)
		return
	}

	result, err := h.search.Search(r.Context(), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: result.Envelope,
		Meta: SearchMeta{Source: result.Source, TookMS: result.Took.Milliseconds()},
	})
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("q"))
	if text == "" {
		httputil.WriteError(w, r, apperrors.InvalidParameter("q", "is required"), h.logger)
		return
	}

	limit := service.DefaultSuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			httputil.WriteError(w, r, apperrors.InvalidParameter("limit", "must be a positive integer"), h.logger)
			return
		}
		limit = l
	}

	suggestions, err := h.suggest.Suggest(r.Context(), text, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// writeRequestError renders query validation failures with their field
// messages and everything else through WriteError.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteError(w, r, err, logger)
}

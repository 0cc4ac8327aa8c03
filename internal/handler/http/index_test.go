package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	memstore "github.com/parishyparijal/MenonMobility-sub001/internal/repository/memory"
)

// --- Listing Handler Tests ---

func TestListings_BySellerIncludesDrafts(t *testing.T) {
	env := newDefaultEnv(t)

	w, resp := do(t, env.router, http.MethodGet, "/api/v1/sellers/seller-1/listings?sort=price_desc", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Listings   []domain.ListingSummary `json:"listings"`
		Pagination domain.Pagination       `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, []string{"l-1", "l-2", "l-6", "l-3", "l-4"}, listingIDs(page.Listings))
	assert.Equal(t, int64(5), page.Pagination.Total)
}

func TestListings_ByCategory(t *testing.T) {
	env := newDefaultEnv(t)

	w, resp := do(t, env.router, http.MethodGet, "/api/v1/categories/Tractor%20Units/listings?brand=scania", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Listings []domain.ListingSummary `json:"listings"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, []string{"l-5"}, listingIDs(page.Listings))
}

func TestListings_InvalidFilter(t *testing.T) {
	env := newDefaultEnv(t)

	w, resp := do(t, env.router, http.MethodGet, "/api/v1/categories/tractor-units/listings?fuel_type=steam", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// --- Index Handler Tests ---

func TestIndex_ReloadsListingFromStore(t *testing.T) {
	env := newDefaultEnv(t)
	l := truck("l-7", "MAN TGX 18.510", 71000, domain.ConditionUsed, 0)
	env.store.Put(l)

	w, resp := do(t, env.router, http.MethodPost, "/api/v1/search/index", `{"id":"l-7"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "indexed", data["status"])

	_, resp = do(t, env.router, http.MethodGet, "/api/v1/search?q=tgx", "")
	assert.Equal(t, int64(1), decodeEnvelope(t, resp.Data).Pagination.Total)
}

func TestIndex_UnknownListingIsRemoved(t *testing.T) {
	env := newDefaultEnv(t)
	stale := truck("l-gone", "Removed trailer", 1000, domain.ConditionUsed, 0)
	require.NoError(t, env.engine.Index(context.Background(), &stale))
	before := env.engine.Len()

	w, _ := do(t, env.router, http.MethodPost, "/api/v1/search/index", `{"id":"l-gone"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before-1, env.engine.Len())
}

func TestIndex_RejectsBadBodies(t *testing.T) {
	env := newDefaultEnv(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing id", `{}`, "VALIDATION_ERROR"},
		{"unknown field", `{"id":"l-1","title":"x"}`, "INVALID_INPUT"},
		{"not json", `not json`, "INVALID_INPUT"},
		{"oversized", `{"id":"` + strings.Repeat("x", 1<<20) + `"}`, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, env.router, http.MethodPost, "/api/v1/search/index", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestDelete_RemovesFromIndex(t *testing.T) {
	env := newDefaultEnv(t)
	before := env.engine.Len()

	w, resp := do(t, env.router, http.MethodDelete, "/api/v1/search/l-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "deleted", data["status"])
	assert.Equal(t, before-1, env.engine.Len())
}

func TestReindex_RunsInBackground(t *testing.T) {
	store := memstore.New()
	store.Put(fixture()...)
	env := newTestEnv(t, store, store)
	require.NoError(t, env.engine.Delete(context.Background(), "l-1"))
	require.NoError(t, env.engine.Delete(context.Background(), "l-2"))

	w, resp := do(t, env.router, http.MethodPost, "/api/v1/search/reindex", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Contains(t, data["status"], "reindex")

	assert.Eventually(t, func() bool {
		return env.engine.Len() == 5
	}, 2*time.Second, 10*time.Millisecond)
}

// panickingScanStore panics on its first ScanActive call.
type panickingScanStore struct {
	repository.ListingStore
	calls atomic.Int32
}

func (s *panickingScanStore) ScanActive(ctx context.Context, afterID string, limit int) ([]domain.Listing, error) {
	if s.calls.Add(1) == 1 {
		panic("scan cursor corrupted")
	}
	return s.ListingStore.ScanActive(ctx, afterID, limit)
}

func TestReindex_PanicReleasesTheGuard(t *testing.T) {
	mem := memstore.New()
	mem.Put(fixture()...)
	env := newTestEnv(t, &panickingScanStore{ListingStore: mem}, mem)
	require.NoError(t, env.engine.Delete(context.Background(), "l-1"))

	w, _ := do(t, env.router, http.MethodPost, "/api/v1/search/reindex", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil))
		return strings.Contains(rec.Body.String(), "reindex started")
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return env.engine.Len() == 5
	}, 2*time.Second, 10*time.Millisecond)
}

package engine

import (
	"context"
	"errors"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
)

// ErrPageOutOfRange is returned by Search when the requested page lies past
// the deepest page the engine can serve. It says nothing about the engine's
// health.
var ErrPageOutOfRange = errors.New("page beyond engine result window")

// Engine is the primary full-text search backend. Implementations may use
// Elasticsearch or in-memory storage. Any error other than
// ErrPageOutOfRange is treated by callers as the engine being unavailable.
type Engine interface {
	// Search returns the envelope for f: one page of searchable listings,
	// every facet counted under the filter minus its own dimension, and the
	// total number of matches.
	Search(ctx context.Context, f domain.Filter) (*domain.Envelope, error)

	// Suggest returns up to limit titles matching text. Results may contain
	// duplicates.
	Suggest(ctx context.Context, text string, limit int) ([]string, error)

	// Ping reports whether the engine can serve requests.
	Ping(ctx context.Context) error

	// Index adds or replaces a single listing in the index.
	Index(ctx context.Context, listing *domain.Listing) error

	// Delete removes a listing from the index. Deleting an unknown id is not
	// an error.
	Delete(ctx context.Context, id string) error

	// BulkIndex adds or replaces multiple listings in the index.
	BulkIndex(ctx context.Context, listings []domain.Listing) error
}

package repository

import (
	"context"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
)

// Scope selects which listings a query may see. The zero Scope is the public
// search scope: active, non-deleted listings. A seller scope shows every
// non-deleted listing of one seller regardless of status.
type Scope struct {
	SellerID string
}

// SearchScope is the public search scope.
func SearchScope() Scope { return Scope{} }

// SellerScope is the seller dashboard scope.
func SellerScope(sellerID string) Scope { return Scope{SellerID: sellerID} }

// FacetCount is one grouped count. For categories and brands Value is the
// foreign key id; for the other dimensions it is the enum value or country.
type FacetCount struct {
	Value string
	Count int64
}

// ListingStore defines read access to the relational listing store.
type ListingStore interface {
	// Find returns one page of listings matching f under scope, ordered by
	// f.Sort, plus the total number of matches.
	Find(ctx context.Context, f domain.Filter, scope Scope) ([]domain.ListingSummary, int64, error)

	// CountByDimension groups the searchable listings matching f by dimension
	// d. Callers pass the filter with d already removed.
	CountByDimension(ctx context.Context, d domain.Dimension, f domain.Filter) ([]FacetCount, error)

	// Ranges returns the price and year min/max of the searchable listings
	// matching f. The price range ignores the price filter and the year
	// range ignores the year filter.
	Ranges(ctx context.Context, f domain.Filter) (price, year domain.Range, err error)

	// RecentTitles returns up to limit titles of the most recently published
	// searchable listings whose title contains text, case-insensitively.
	RecentTitles(ctx context.Context, text string, limit int) ([]string, error)

	// GetByID returns a listing by id, including inactive and deleted ones.
	GetByID(ctx context.Context, id string) (*domain.Listing, error)

	// ScanActive returns up to limit searchable listings with id > afterID,
	// ordered by id, for keyset-paginated reindexing.
	ScanActive(ctx context.Context, afterID string, limit int) ([]domain.Listing, error)
}

// Taxonomy resolves brand and category ids to display metadata.
type Taxonomy interface {
	Brands(ctx context.Context, ids []string) (map[string]domain.TaxonomyEntry, error)
	Categories(ctx context.Context, ids []string) (map[string]domain.TaxonomyEntry, error)
}

// SuggestionCache caches autocomplete results.
type SuggestionCache interface {
	Get(ctx context.Context, text string, limit int) ([]string, bool, error)
	Set(ctx context.Context, text string, limit int, suggestions []string) error
}

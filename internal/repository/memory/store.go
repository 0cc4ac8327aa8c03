// Package memory provides an in-memory listing store used in development
// mode and as the reference implementation in behavioural tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
)

// Store is an in-memory implementation of repository.ListingStore and
// repository.Taxonomy. Brand and category entries are derived from the
// listings put into it. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	listings   map[string]domain.Listing
	brands     map[string]domain.TaxonomyEntry
	categories map[string]domain.TaxonomyEntry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		listings:   make(map[string]domain.Listing),
		brands:     make(map[string]domain.TaxonomyEntry),
		categories: make(map[string]domain.TaxonomyEntry),
	}
}

var (
	_ repository.ListingStore = (*Store)(nil)
	_ repository.Taxonomy     = (*Store)(nil)
)

// Put adds or replaces listings.
func (s *Store) Put(listings ...domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range listings {
		s.listings[l.ID] = l
		if l.BrandID != "" {
			s.brands[l.BrandID] = domain.TaxonomyEntry{ID: l.BrandID, Name: l.BrandName, Slug: l.BrandSlug}
		}
		if l.CategoryID != "" {
			s.categories[l.CategoryID] = domain.TaxonomyEntry{ID: l.CategoryID, Name: l.CategoryName, Slug: l.CategorySlug}
		}
	}
}

// Len returns the number of stored listings, including inactive ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

// selectListings returns copies of every listing accepted by keep.
func (s *Store) selectListings(keep func(*domain.Listing) bool) []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Listing, 0)
	for id := range s.listings {
		l := s.listings[id]
		if keep(&l) {
			out = append(out, l)
		}
	}
	return out
}

func scopeMatcher(f domain.Filter, scope repository.Scope) func(*domain.Listing) bool {
	if scope.SellerID != "" {
		return func(l *domain.Listing) bool {
			return l.DeletedAt == nil && l.SellerID == scope.SellerID && f.MatchesAttributes(l)
		}
	}
	return f.Matches
}

// Find returns one page of matching listings and the total.
func (s *Store) Find(_ context.Context, f domain.Filter, scope repository.Scope) ([]domain.ListingSummary, int64, error) {
	matched := s.selectListings(scopeMatcher(f, scope))
	domain.SortListings(matched, f.Sort)

	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)

	page := make([]domain.ListingSummary, 0, end-start)
	for i := start; i < end; i++ {
		page = append(page, matched[i].Summary())
	}
	return page, int64(total), nil
}

func dimensionValue(d domain.Dimension, l *domain.Listing) string {
	switch d {
	case domain.DimensionCategories:
		return l.CategoryID
	case domain.DimensionBrands:
		return l.BrandID
	case domain.DimensionConditions:
		return string(l.Condition)
	case domain.DimensionFuelTypes:
		return string(l.FuelType)
	case domain.DimensionCountries:
		return l.CountryCode
	default:
		panic("memory: no bucket value for dimension " + string(d))
	}
}

// CountByDimension groups the listings matching f by dimension d.
func (s *Store) CountByDimension(_ context.Context, d domain.Dimension, f domain.Filter) ([]repository.FacetCount, error) {
	counts := make(map[string]int64)
	for _, l := range s.selectListings(f.Matches) {
		if v := dimensionValue(d, &l); v != "" {
			counts[v]++
		}
	}

	out := make([]repository.FacetCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, repository.FacetCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

// Ranges returns the price range under f without its price filter and the
// year range under f without its year filter.
func (s *Store) Ranges(_ context.Context, f domain.Filter) (price, year domain.Range, err error) {
	for _, l := range s.selectListings(f.Without(domain.DimensionPrice).Matches) {
		if l.Price != nil {
			extend(&price, *l.Price)
		}
	}
	for _, l := range s.selectListings(f.Without(domain.DimensionYear).Matches) {
		if l.Year != nil {
			extend(&year, int64(*l.Year))
		}
	}
	return price, year, nil
}

func extend(r *domain.Range, v int64) {
	if r.Min == nil || v < *r.Min {
		r.Min = &v
	}
	if r.Max == nil || v > *r.Max {
		n := v
		r.Max = &n
	}
}

// RecentTitles returns titles of the newest searchable listings containing
// text, case-insensitively.
func (s *Store) RecentTitles(_ context.Context, text string, limit int) ([]string, error) {
	needle := strings.ToLower(text)
	matched := s.selectListings(func(l *domain.Listing) bool {
		return l.Searchable() && strings.Contains(strings.ToLower(l.Title), needle)
	})
	domain.SortListings(matched, domain.SortDateDesc)

	titles := make([]string, 0, min(limit, len(matched)))
	for i := 0; i < len(matched) && i < limit; i++ {
		titles = append(titles, matched[i].Title)
	}
	return titles, nil
}

// GetByID returns a copy of the listing with the given id.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, apperrors.NotFound("listing", id)
	}
	return &l, nil
}

// ScanActive returns searchable listings with id > afterID in id order.
func (s *Store) ScanActive(_ context.Context, afterID string, limit int) ([]domain.Listing, error) {
	matched := s.selectListings(func(l *domain.Listing) bool {
		return l.Searchable() && l.ID > afterID
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Brands resolves brand ids.
func (s *Store) Brands(_ context.Context, ids []string) (map[string]domain.TaxonomyEntry, error) {
	return s.lookup(s.brands, ids), nil
}

// Categories resolves category ids.
func (s *Store) Categories(_ context.Context, ids []string) (map[string]domain.TaxonomyEntry, error) {
	return s.lookup(s.categories, ids), nil
}

func (s *Store) lookup(entries map[string]domain.TaxonomyEntry, ids []string) map[string]domain.TaxonomyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.TaxonomyEntry, len(ids))
	for _, id := range ids {
		if e, ok := entries[id]; ok {
			out[id] = e
		}
	}
	return out
}

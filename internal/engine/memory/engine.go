package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/engine"
)

// Engine is an in-memory implementation of engine.Engine. It matches text
// by case-insensitive substring on title and description, so its results
// agree with the relational fallback. Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
	failure  error
}

var _ engine.Engine = (*Engine)(nil)

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		listings: make(map[string]domain.Listing),
	}
}

// SetFailure makes every subsequent call return err. A nil err restores
// normal operation.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failure = err
}

// Ping returns the configured failure, if any.
func (e *Engine) Ping(_ context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.failure
}

// Index adds or replaces a single listing in the in-memory index.
func (e *Engine) Index(_ context.Context, listing *domain.Listing) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure != nil {
		return e.failure
	}

	e.listings[listing.ID] = *listing
	return nil
}

// Delete removes a listing from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure != nil {
		return e.failure
	}

	delete(e.listings, id)
	return nil
}

// BulkIndex adds or replaces multiple listings in the in-memory index.
func (e *Engine) BulkIndex(_ context.Context, listings []domain.Listing) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure != nil {
		return e.failure
	}

	for i := range listings {
		e.listings[listings[i].ID] = listings[i]
	}
	return nil
}

// Len returns the number of indexed listings.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listings)
}

// collect returns copies of the listings matching f.
func (e *Engine) collect(f domain.Filter) []domain.Listing {
	out := make([]domain.Listing, 0)
	for id := range e.listings {
		l := e.listings[id]
		if f.Matches(&l) {
			out = append(out, l)
		}
	}
	return out
}

// Search executes f against the in-memory index.
func (e *Engine) Search(_ context.Context, f domain.Filter) (*domain.Envelope, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.failure != nil {
		return nil, e.failure
	}

	matched := e.collect(f)
	domain.SortListings(matched, f.Sort)

	env := domain.NewEnvelope(f)
	start := min(f.Offset(), len(matched))
	end := min(start+f.Limit, len(matched))
	for i := start; i < end; i++ {
		env.Listings = append(env.Listings, matched[i].Summary())
	}
	env.Pagination = domain.NewPagination(f.Page, f.Limit, int64(len(matched)))

	for _, d := range domain.BucketDimensions() {
		env.Aggregations.SetBuckets(d, countBuckets(d, e.collect(f.Without(d))))
	}
	for _, l := range e.collect(f.Without(domain.DimensionPrice)) {
		if l.Price != nil {
			extend(&env.Aggregations.Price, *l.Price)
		}
	}
	for _, l := range e.collect(f.Without(domain.DimensionYear)) {
		if l.Year != nil {
			extend(&env.Aggregations.Year, int64(*l.Year))
		}
	}

	return env, nil
}

func countBuckets(d domain.Dimension, listings []domain.Listing) []domain.Bucket {
	byValue := make(map[string]*domain.Bucket)
	var order []string
	for i := range listings {
		l := &listings[i]
		var value, label, slug string
		switch d {
		case domain.DimensionCategories:
			value, label, slug = l.CategoryID, l.CategoryName, l.CategorySlug
		case domain.DimensionBrands:
			value, label, slug = l.BrandID, l.BrandName, l.BrandSlug
		case domain.DimensionConditions:
			value = string(l.Condition)
		case domain.DimensionFuelTypes:
			value = string(l.FuelType)
		case domain.DimensionCountries:
			value = l.CountryCode
		}
		if value == "" {
			continue
		}
		b, ok := byValue[value]
		if !ok {
			b = &domain.Bucket{Value: value, Label: label, Slug: slug}
			byValue[value] = b
			order = append(order, value)
		}
		b.Count++
	}

	out := make([]domain.Bucket, 0, len(order))
	for _, v := range order {
		out = append(out, *byValue[v])
	}
	return out
}

func extend(r *domain.Range, v int64) {
	if r.Min == nil || v < *r.Min {
		lo := v
		r.Min = &lo
	}
	if r.Max == nil || v > *r.Max {
		hi := v
		r.Max = &hi
	}
}

// Suggest returns titles of searchable listings containing text, newest
// first. Duplicates are returned as found.
func (e *Engine) Suggest(_ context.Context, text string, limit int) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.failure != nil {
		return nil, e.failure
	}

	needle := strings.ToLower(text)
	matched := make([]domain.Listing, 0)
	for id := range e.listings {
		l := e.listings[id]
		if l.Searchable() && strings.Contains(strings.ToLower(l.Title), needle) {
			matched = append(matched, l)
		}
	}
	domain.SortListings(matched, domain.SortDateDesc)

	titles := make([]string, 0, min(limit, len(matched)))
	for i := 0; i < len(matched) && i < limit; i++ {
		titles = append(titles, matched[i].Title)
	}
	return titles, nil
}

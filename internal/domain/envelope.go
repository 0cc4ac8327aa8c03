package domain

import (
	"sort"
	"time"

	"github.com/parishyparijal/MenonMobility-sub001/pkg/pagination"
)

// Bucket is one value of a facet with the number of matching listings.
// Label and Slug are only set for categories and brands.
type Bucket struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Count int64  `json:"count"`
}

// Range is a min/max facet. Both bounds are nil when nothing matched.
type Range struct {
	Min *int64 `json:"min"`
	Max *int64 `json:"max"`
}

// Aggregations holds every facet of a search response.
type Aggregations struct {
	Categories []Bucket `json:"categories"`
	Brands     []Bucket `json:"brands"`
	Conditions []Bucket `json:"conditions"`
	FuelTypes  []Bucket `json:"fuelTypes"`
	Countries  []Bucket `json:"countries"`
	Price      Range    `json:"price"`
	Year       Range    `json:"year"`
}

// Pagination describes the page returned.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination echoes page and limit and derives the page count from total.
func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pagination.TotalPages(total, limit),
	}
}

// Envelope is the response shape shared by the primary and fallback paths.
type Envelope struct {
	Listings     []ListingSummary `json:"listings"`
	Aggregations Aggregations     `json:"aggregations"`
	Pagination   Pagination       `json:"pagination"`
}

// NewEnvelope returns an envelope whose slices are empty rather than nil so
// every key serializes as an array.
func NewEnvelope(f Filter) *Envelope {
	return &Envelope{
		Listings: []ListingSummary{},
		Aggregations: Aggregations{
			Categories: []Bucket{},
			Brands:     []Bucket{},
			Conditions: []Bucket{},
			FuelTypes:  []Bucket{},
			Countries:  []Bucket{},
		},
		Pagination: NewPagination(f.Page, f.Limit, 0),
	}
}

// SetBuckets sorts and stores the buckets of dimension d. Range dimensions
// are ignored.
func (a *Aggregations) SetBuckets(d Dimension, buckets []Bucket) {
	if buckets == nil {
		buckets = []Bucket{}
	}
	SortBuckets(buckets)
	switch d {
	case DimensionCategories:
		a.Categories = buckets
	case DimensionBrands:
		a.Brands = buckets
	case DimensionConditions:
		a.Conditions = buckets
	case DimensionFuelTypes:
		a.FuelTypes = buckets
	case DimensionCountries:
		a.Countries = buckets
	}
}

// Buckets returns the buckets of dimension d, or nil for range dimensions.
func (a *Aggregations) Buckets(d Dimension) []Bucket {
	switch d {
	case DimensionCategories:
		return a.Categories
	case DimensionBrands:
		return a.Brands
	case DimensionConditions:
		return a.Conditions
	case DimensionFuelTypes:
		return a.FuelTypes
	case DimensionCountries:
		return a.Countries
	}
	return nil
}

// SortBuckets orders buckets by count descending, then value ascending.
func SortBuckets(buckets []Bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})
}

// SortListings orders listings in place the way the relational store does:
// the sort key first, then id. Listings with no price or year sort last.
// Relevance falls back to publication time.
func SortListings(ls []Listing, s Sort) {
	sort.SliceStable(ls, func(i, j int) bool {
		a, b := &ls[i], &ls[j]
		if c := compareBySort(a, b, s); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func compareBySort(a, b *Listing, s Sort) int {
	switch s {
	case SortPriceAsc:
		return compareNullable(a.Price, b.Price, false)
	case SortPriceDesc:
		return compareNullable(a.Price, b.Price, true)
	case SortYearAsc:
		return compareNullable(intPtr64(a.Year), intPtr64(b.Year), false)
	case SortYearDesc:
		return compareNullable(intPtr64(a.Year), intPtr64(b.Year), true)
	case SortDateAsc:
		return compareTime(a.PublishedAt, b.PublishedAt, false)
	default:
		return compareTime(a.PublishedAt, b.PublishedAt, true)
	}
}

func intPtr64(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func compareNullable(a, b *int64, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a == *b:
		return 0
	case (*a < *b) != desc:
		return -1
	default:
		return 1
	}
}

func compareTime(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Equal(*b):
		return 0
	case a.Before(*b) != desc:
		return -1
	default:
		return 1
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
)

// Aggregator builds the search envelope from the relational store. The
// listing page and every facet are separate queries run concurrently; each
// facet is counted under the filter minus its own dimension.
type Aggregator struct {
	store    repository.ListingStore
	taxonomy repository.Taxonomy
	logger   *slog.Logger
}

// NewAggregator creates a new fallback aggregator.
func NewAggregator(store repository.ListingStore, taxonomy repository.Taxonomy, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		taxonomy: taxonomy,
		logger:   logger,
	}
}

// Aggregate returns the envelope for f. Any failing query fails the whole
// call; partial envelopes are never returned.
func (a *Aggregator) Aggregate(ctx context.Context, f domain.Filter) (*domain.Envelope, error) {
	var (
		listings    []domain.ListingSummary
		total       int64
		price, year domain.Range
		dims        = domain.BucketDimensions()
		counts      = make([][]repository.FacetCount, len(dims))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, total, err = a.store.Find(gctx, f, repository.SearchScope())
		if err != nil {
			return fmt.Errorf("find listings: %w", err)
		}
		return nil
	})
	for i, d := range dims {
		g.Go(func() error {
			c, err := a.store.CountByDimension(gctx, d, f.Without(d))
			if err != nil {
				return fmt.Errorf("count %s: %w", d, err)
			}
			counts[i] = c
			return nil
		})
	}
	g.Go(func() error {
		var err error
		price, year, err = a.store.Ranges(gctx, f)
		if err != nil {
			return fmt.Errorf("price and year ranges: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	byDim := make(map[domain.Dimension][]repository.FacetCount, len(dims))
	for i, d := range dims {
		byDim[d] = counts[i]
	}
	categories, brands, err := a.resolveLabels(ctx, byDim[domain.DimensionCategories], byDim[domain.DimensionBrands])
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	env := domain.NewEnvelope(f)
	if listings != nil {
		env.Listings = listings
	}
	env.Pagination = domain.NewPagination(f.Page, f.Limit, total)
	for _, d := range dims {
		var labels map[string]domain.TaxonomyEntry
		switch d {
		case domain.DimensionCategories:
			labels = categories
		case domain.DimensionBrands:
			labels = brands
		}
		env.Aggregations.SetBuckets(d, toBuckets(byDim[d], labels))
	}
	env.Aggregations.Price = price
	env.Aggregations.Year = year

	a.logger.DebugContext(ctx, "fallback aggregation complete",
		slog.Int64("total", total),
		slog.Int("listings", len(env.Listings)),
	)
	return env, nil
}

// resolveLabels looks up display names for the category and brand ids.
func (a *Aggregator) resolveLabels(ctx context.Context, categoryCounts, brandCounts []repository.FacetCount) (categories, brands map[string]domain.TaxonomyEntry, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = a.taxonomy.Categories(gctx, facetValues(categoryCounts))
		if err != nil {
			return fmt.Errorf("resolve categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		brands, err = a.taxonomy.Brands(gctx, facetValues(brandCounts))
		if err != nil {
			return fmt.Errorf("resolve brands: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return categories, brands, nil
}

func facetValues(counts []repository.FacetCount) []string {
	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.Value)
	}
	return ids
}

// toBuckets converts grouped counts. Ids missing from labels keep an empty
// label and slug.
func toBuckets(counts []repository.FacetCount, labels map[string]domain.TaxonomyEntry) []domain.Bucket {
	buckets := make([]domain.Bucket, 0, len(counts))
	for _, c := range counts {
		b := domain.Bucket{Value: c.Value, Count: c.Count}
		if e, ok := labels[c.Value]; ok {
			b.Label, b.Slug = e.Name, e.Slug
		}
		buckets = append(buckets, b)
	}
	return buckets
}

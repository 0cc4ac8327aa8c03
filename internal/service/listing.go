package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
)

// ListingPage is one page of browsed listings. Browsing carries no facets.
type ListingPage struct {
	Listings   []domain.ListingSummary `json:"listings"`
	Pagination domain.Pagination       `json:"pagination"`
}

// ListingService lists listings straight from the relational store for
// seller dashboards and category pages.
type ListingService struct {
	store  repository.ListingStore
	logger *slog.Logger
}

// NewListingService creates a new listing browse service.
func NewListingService(store repository.ListingStore, logger *slog.Logger) *ListingService {
	return &ListingService{store: store, logger: logger}
}

// BySeller lists every non-deleted listing of a seller, whatever its status.
func (s *ListingService) BySeller(ctx context.Context, sellerID string, f domain.Filter) (*ListingPage, error) {
	if strings.TrimSpace(sellerID) == "" {
		return nil, apperrors.InvalidInput("seller id is required")
	}
	return s.find(ctx, f, repository.SellerScope(sellerID))
}

// ByCategory lists the searchable listings of a category.
func (s *ListingService) ByCategory(ctx context.Context, slug string, f domain.Filter) (*ListingPage, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, apperrors.InvalidInput("category slug is required")
	}
	f.CategorySlug = slug
	return s.find(ctx, f, repository.SearchScope())
}

func (s *ListingService) find(ctx context.Context, f domain.Filter, scope repository.Scope) (*ListingPage, error) {
	if err := f.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	f = f.Normalize()

	listings, total, err := s.store.Find(ctx, f, scope)
	if err != nil {
		return nil, fmt.Errorf("browse listings: %w", err)
	}
	if listings == nil {
		listings = []domain.ListingSummary{}
	}
	return &ListingPage{
		Listings:   listings,
		Pagination: domain.NewPagination(f.Page, f.Limit, total),
	}, nil
}

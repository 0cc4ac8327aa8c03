package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/engine"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
)

// DefaultReindexBatchSize is the number of listings bulk indexed per batch.
const DefaultReindexBatchSize = 500

// IndexService keeps the primary engine in sync with the relational store.
type IndexService struct {
	engine    engine.Engine
	store     repository.ListingStore
	batchSize int
	logger    *slog.Logger
}

// NewIndexService creates a new index sync service.
func NewIndexService(eng engine.Engine, store repository.ListingStore, batchSize int, logger *slog.Logger) *IndexService {
	if batchSize <= 0 {
		batchSize = DefaultReindexBatchSize
	}
	return &IndexService{
		engine:    eng,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Index writes a listing to the engine, or removes it when it is no longer
// searchable.
func (s *IndexService) Index(ctx context.Context, listing *domain.Listing) error {
	if listing.ID == "" {
		return apperrors.InvalidInput("listing id is required")
	}

	if !listing.Searchable() {
		return s.Delete(ctx, listing.ID)
	}

	if err := s.engine.Index(ctx, listing); err != nil {
		return fmt.Errorf("index listing: %w", err)
	}

	s.logger.InfoContext(ctx, "listing indexed",
		slog.String("listing_id", listing.ID),
		slog.String("title", listing.Title),
	)
	return nil
}

// IndexByID reloads a listing from the store and indexes it. A listing
// missing from the store is removed from the index.
func (s *IndexService) IndexByID(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("listing id is required")
	}

	listing, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.Delete(ctx, id)
		}
		return fmt.Errorf("load listing %s: %w", id, err)
	}
	return s.Index(ctx, listing)
}

// Delete removes a listing from the engine.
func (s *IndexService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("listing id is required")
	}

	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	s.logger.InfoContext(ctx, "listing deleted from index",
		slog.String("listing_id", id),
	)
	return nil
}

// BulkIndex indexes the searchable listings among listings and returns how
// many were sent to the engine.
func (s *IndexService) BulkIndex(ctx context.Context, listings []domain.Listing) (int, error) {
	batch := make([]domain.Listing, 0, len(listings))
	for i := range listings {
		if listings[i].ID != "" && listings[i].Searchable() {
			batch = append(batch, listings[i])
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if err := s.engine.BulkIndex(ctx, batch); err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("count", len(batch)),
	)
	return len(batch), nil
}

// Reindex pages through every searchable listing in id order and bulk
// indexes it. It returns the number of listings indexed.
func (s *IndexService) Reindex(ctx context.Context) (int, error) {
	var (
		afterID string
		total   int
	)
	for {
		batch, err := s.store.ScanActive(ctx, afterID, s.batchSize)
		if err != nil {
			return total, fmt.Errorf("reindex: scan after %q: %w", afterID, err)
		}
		if len(batch) == 0 {
			break
		}

		n, err := s.BulkIndex(ctx, batch)
		if err != nil {
			return total, fmt.Errorf("reindex: %w", err)
		}
		total += n
		afterID = batch[len(batch)-1].ID

		if len(batch) < s.batchSize {
			break
		}
	}

	s.logger.InfoContext(ctx, "reindex completed", slog.Int("count", total))
	return total, nil
}

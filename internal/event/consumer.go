package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/parishyparijal/MenonMobility-sub001/pkg/kafka"
)

// Kafka topics for listing domain events consumed by the search service.
var (
	TopicListingCreated   = pkgkafka.Topic("listing", "created")
	TopicListingUpdated   = pkgkafka.Topic("listing", "updated")
	TopicListingPublished = pkgkafka.Topic("listing", "published")
	TopicListingDeleted   = pkgkafka.Topic("listing", "deleted")
)

// Topics returns every topic the consumer subscribes to.
func Topics() []string {
	return []string{TopicListingCreated, TopicListingUpdated, TopicListingPublished, TopicListingDeleted}
}

// ListingEventData is the part of a listing event payload the search service
// reads. The listing itself is reloaded from the store, so the payload only
// needs to identify it.
type ListingEventData struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// Indexer keeps the search index in sync with the listing store.
type Indexer interface {
	IndexByID(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Consumer handles Kafka events related to listing changes for search indexing.
type Consumer struct {
	indexer Indexer
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(indexer Indexer, logger *slog.Logger) *Consumer {
	return &Consumer{
		indexer: indexer,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicListingCreated, TopicListingUpdated, TopicListingPublished:
		return c.handleListingChanged(ctx, event)
	case TopicListingDeleted:
		return c.handleListingDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleListingChanged reloads the listing and indexes it. Listings that are
// no longer searchable are removed by the indexer.
func (c *Consumer) handleListingChanged(ctx context.Context, event *pkgkafka.Event) error {
	id, err := listingID(event)
	if err != nil {
		return err
	}

	if err := c.indexer.IndexByID(ctx, id); err != nil {
		return fmt.Errorf("index listing from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed listing from event",
		slog.String("listing_id", id),
		slog.String("event_type", event.EventType),
	)
	return nil
}

// handleListingDeleted removes a deleted listing from the index.
func (c *Consumer) handleListingDeleted(ctx context.Context, event *pkgkafka.Event) error {
	id, err := listingID(event)
	if err != nil {
		return err
	}

	if err := c.indexer.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted listing from deleted event",
		slog.String("listing_id", id),
	)
	return nil
}

// listingID prefers the envelope's aggregate id and falls back to the id in
// the payload.
func listingID(event *pkgkafka.Event) (string, error) {
	if event.AggregateID != "" {
		return event.AggregateID, nil
	}

	var data ListingEventData
	if err := event.UnmarshalData(&data); err != nil {
		return "", err
	}
	if data.ID == "" {
		return "", fmt.Errorf("%s event %s: missing listing id", event.EventType, event.EventID)
	}
	return data.ID, nil
}

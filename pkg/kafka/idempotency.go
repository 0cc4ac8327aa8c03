package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// IdempotencyStore records processed event IDs. Add is called only after the
// handler succeeded. Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	Contains(ctx context.Context, eventID string) (bool, error)
	Add(ctx context.Context, eventID string) error
}

// MemoryIdempotencyStore keeps processed event IDs in process memory until
// their deadline passes. Expired IDs are swept on every Add.
type MemoryIdempotencyStore struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryIdempotencyStore creates a store that forgets an event ID ttl after
// it was added.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		deadlines: make(map[string]time.Time),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.deadlines[eventID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(deadline) {
		delete(s.deadlines, eventID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, deadline := range s.deadlines {
		if !now.Before(deadline) {
			delete(s.deadlines, id)
		}
	}
	s.deadlines[eventID] = now.Add(s.ttl)
	return nil
}

// Len returns the number of unexpired event IDs.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, deadline := range s.deadlines {
		if now.Before(deadline) {
			n++
		}
	}
	return n
}

// IdempotentHandler skips events whose EventID the store has already seen.
// A failing store lookup does not block processing; listing events are
// upserts so replaying one is harmless.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		exists, err := store.Contains(ctx, event.EventID)
		if err != nil {
			logger.Warn("idempotency store lookup failed, processing anyway",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return inner(ctx, event)
		}

		if exists {
			consumerMessagesDuplicate.WithLabelValues(event.EventType).Inc()
			logger.Debug("skipping duplicate event",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if addErr := store.Add(ctx, event.EventID); addErr != nil {
			logger.Warn("failed to record event ID in idempotency store",
				slog.String("event_id", event.EventID),
				slog.String("error", addErr.Error()),
			)
		}

		return nil
	}
}

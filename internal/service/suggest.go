package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parishyparijal/MenonMobility-sub001/internal/engine"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
)

// Suggestion limits.
const (
	DefaultSuggestLimit    = 8
	MaxSuggestLimit        = 20
	DefaultSuggestScanSize = 50
)

// SuggestService resolves autocomplete suggestions with the same
// primary/fallback policy as search.
type SuggestService struct {
	engine    engine.Engine
	prober    *Prober
	store     repository.ListingStore
	cache     repository.SuggestionCache
	scanLimit int
	logger    *slog.Logger
}

// SuggestOption configures a SuggestService.
type SuggestOption func(*SuggestService)

// WithSuggestionCache caches results. A nil cache is ignored.
func WithSuggestionCache(c repository.SuggestionCache) SuggestOption {
	return func(s *SuggestService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithScanLimit sets how many recent titles the fallback inspects.
func WithScanLimit(n int) SuggestOption {
	return func(s *SuggestService) {
		if n > 0 {
			s.scanLimit = n
		}
	}
}

// NewSuggestService creates a new suggest service.
func NewSuggestService(eng engine.Engine, prober *Prober, store repository.ListingStore, logger *slog.Logger, opts ...SuggestOption) *SuggestService {
	s := &SuggestService{
		engine:    eng,
		prober:    prober,
		store:     store,
		scanLimit: DefaultSuggestScanSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampSuggestLimit maps limit into 1..MaxSuggestLimit; non-positive
// values become DefaultSuggestLimit.
func ClampSuggestLimit(limit int) int {
	if limit <= 0 {
		return DefaultSuggestLimit
	}
	return min(limit, MaxSuggestLimit)
}

// Suggest returns up to limit distinct titles matching text. Titles are
// unique case-insensitively and keep the casing first seen.
func (s *SuggestService) Suggest(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("suggest text must not be blank")
	}
	limit = ClampSuggestLimit(limit)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, text, limit)
		if err != nil {
			s.logger.WarnContext(ctx, "suggestion cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return cached, nil
		}
	}

	suggestions, err := s.resolve(ctx, text, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, text, limit, suggestions); err != nil {
			s.logger.WarnContext(ctx, "suggestion cache write failed", slog.String("error", err.Error()))
		}
	}
	return suggestions, nil
}

func (s *SuggestService) resolve(ctx context.Context, text string, limit int) ([]string, error) {
	if s.prober.IsAvailable(ctx) {
		// Over-fetch so case-variant duplicates do not starve the result.
		titles, err := s.engine.Suggest(ctx, text, max(s.scanLimit, limit))
		if err == nil {
			searchRequestsTotal.WithLabelValues(operationSuggest, string(SourcePrimary)).Inc()
			return dedupeTitles(titles, limit), nil
		}
		demote(ctx, s.prober, s.logger, operationSuggest, err)
	}

	start := time.Now()
	titles, err := s.store.RecentTitles(ctx, text, s.scanLimit)
	fallbackDuration.WithLabelValues(operationSuggest).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperrors.Unavailable("SEARCH_UNAVAILABLE", fmt.Errorf("recent titles: %w", err))
	}
	searchRequestsTotal.WithLabelValues(operationSuggest, string(SourceFallback)).Inc()
	return dedupeTitles(titles, limit), nil
}

// dedupeTitles keeps the first occurrence of each title, compared
// case-insensitively, up to limit entries.
func dedupeTitles(titles []string, limit int) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, min(limit, len(titles)))
	for _, t := range titles {
		if len(out) == limit {
			break
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

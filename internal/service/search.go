package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/engine"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/tracing"
)

var tracer = tracing.Tracer("github.com/parishyparijal/MenonMobility-sub001/internal/service")

// Source identifies which backend produced a result.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Result is a search envelope together with the backend that served it.
type Result struct {
	Envelope *domain.Envelope
	Source   Source
	Took     time.Duration
}

// SearchService serves search requests from the primary engine and falls
// back to the relational aggregator when the engine is unavailable.
type SearchService struct {
	engine     engine.Engine
	prober     *Prober
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(eng engine.Engine, prober *Prober, aggregator *Aggregator, logger *slog.Logger) *SearchService {
	return &SearchService{
		engine:     eng,
		prober:     prober,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Search returns the envelope for f. Primary failures are logged and
// demote the engine; only a fallback failure reaches the caller, as a
// SEARCH_UNAVAILABLE error.
func (s *SearchService) Search(ctx context.Context, f domain.Filter) (*Result, error) {
	start := time.Now()
	if err := f.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	f = f.Normalize()

	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()

	if s.prober.IsAvailable(ctx) {
		env, err := s.engine.Search(ctx, f)
		switch {
		case err == nil:
			return s.served(ctx, env, SourcePrimary, start), nil
		case errors.Is(err, engine.ErrPageOutOfRange):
			s.logger.DebugContext(ctx, "page beyond primary result window, using fallback",
				slog.Int("page", f.Page),
				slog.Int("limit", f.Limit),
			)
		default:
			demote(ctx, s.prober, s.logger, operationSearch, err)
		}
	}

	env, err := s.aggregator.Aggregate(ctx, f)
	fallbackDuration.WithLabelValues(operationSearch).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.Unavailable("SEARCH_UNAVAILABLE", err)
	}
	return s.served(ctx, env, SourceFallback, start), nil
}

func (s *SearchService) served(ctx context.Context, env *domain.Envelope, src Source, start time.Time) *Result {
	took := time.Since(start)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("search.source", string(src)))
	searchRequestsTotal.WithLabelValues(operationSearch, string(src)).Inc()
	s.logger.DebugContext(ctx, "search served",
		slog.String("source", string(src)),
		slog.Int64("total", env.Pagination.Total),
		slog.Duration("took", took),
	)
	return &Result{Envelope: env, Source: src, Took: took}
}

// demote records a failed primary call and discards the availability verdict.
func demote(ctx context.Context, prober *Prober, logger *slog.Logger, op string, err error) {
	prober.MarkDown()
	primaryDemotionsTotal.WithLabelValues(op).Inc()
	logger.WarnContext(ctx, "primary search engine failed, falling back",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("search.demoted", true))
}

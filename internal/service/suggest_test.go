package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	memengine "github.com/parishyparijal/MenonMobility-sub001/internal/engine/memory"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	memstore "github.com/parishyparijal/MenonMobility-sub001/internal/repository/memory"
	rediscache "github.com/parishyparijal/MenonMobility-sub001/internal/repository/redis"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
)

// scriptedStore returns fixed titles from RecentTitles, in the given order.
type scriptedStore struct {
	repository.ListingStore
	titles    []string
	err       error
	calls     int
	lastLimit int
}

func (s *scriptedStore) RecentTitles(_ context.Context, _ string, limit int) ([]string, error) {
	s.calls++
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.titles[:min(limit, len(s.titles))], nil
}

func downEngine() *memengine.Engine {
	eng := memengine.New()
	eng.SetFailure(errors.New("down"))
	return eng
}

func newSuggestService(eng *memengine.Engine, store repository.ListingStore, opts ...SuggestOption) *SuggestService {
	prober := NewProber(NewAvailabilityState(), eng, ProberConfig{}, newTestLogger())
	return NewSuggestService(eng, prober, store, newTestLogger(), opts...)
}

func TestSuggestService_DedupesScanInRecencyOrder(t *testing.T) {
	store := &scriptedStore{titles: []string{"Volvo FH", "VOLVO FH", "Scania R"}}
	svc := newSuggestService(downEngine(), store)

	got, err := svc.Suggest(context.Background(), "volvo", 8)

	require.NoError(t, err)
	assert.Equal(t, []string{"Volvo FH", "Scania R"}, got)
}

func TestSuggestService_BlankTextIsInvalid(t *testing.T) {
	store := &scriptedStore{}
	eng := memengine.New()
	svc := newSuggestService(eng, store)

	for _, text := range []string{"", "   ", "\t"} {
		_, err := svc.Suggest(context.Background(), text, 8)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
	assert.Zero(t, store.calls)
	assert.Equal(t, AvailabilityUnknown, svc.prober.State().Load())
}

func TestSuggestService_TruncatesAfterDedupe(t *testing.T) {
	store := &scriptedStore{titles: []string{"MAN TGX", "man tgx", "MAN TGS", "MAN TGL", "MAN TGE"}}
	svc := newSuggestService(downEngine(), store)

	got, err := svc.Suggest(context.Background(), "man", 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"MAN TGX", "MAN TGS", "MAN TGL"}, got)
}

func TestSuggestService_ScanLimit(t *testing.T) {
	titles := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		titles = append(titles, "Trailer")
	}
	store := &scriptedStore{titles: titles}
	svc := newSuggestService(downEngine(), store, WithScanLimit(5))

	got, err := svc.Suggest(context.Background(), "trailer", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"Trailer"}, got)
	assert.Equal(t, 5, store.lastLimit)
}

func TestClampSuggestLimit(t *testing.T) {
	assert.Equal(t, DefaultSuggestLimit, ClampSuggestLimit(0))
	assert.Equal(t, DefaultSuggestLimit, ClampSuggestLimit(-3))
	assert.Equal(t, 1, ClampSuggestLimit(1))
	assert.Equal(t, MaxSuggestLimit, ClampSuggestLimit(500))
}

func TestSuggestService_PrimaryResultsAreDeduped(t *testing.T) {
	eng := memengine.New()
	older := newListing("l-1", "Volvo FH", 1, domain.ConditionUsed, 2)
	newer := newListing("l-2", "VOLVO FH", 1, domain.ConditionUsed, 1)
	require.NoError(t, eng.BulkIndex(context.Background(), []domain.Listing{older, newer}))
	store := &scriptedStore{}
	svc := newSuggestService(eng, store)

	got, err := svc.Suggest(context.Background(), "volvo", 8)

	require.NoError(t, err)
	assert.Equal(t, []string{"VOLVO FH"}, got)
	assert.Zero(t, store.calls)
}

func TestSuggestService_PrimaryFillsLimitPastDuplicates(t *testing.T) {
	listings := []domain.Listing{
		newListing("l-1", "Volvo FH", 1, domain.ConditionUsed, 1),
		newListing("l-2", "VOLVO FH", 1, domain.ConditionUsed, 2),
		newListing("l-3", "Volvo FM", 1, domain.ConditionUsed, 3),
	}
	eng := memengine.New()
	require.NoError(t, eng.BulkIndex(context.Background(), listings))
	store := memstore.New()
	store.Put(listings...)

	primary, err := newSuggestService(eng, store).Suggest(context.Background(), "volvo", 2)
	require.NoError(t, err)
	fallback, err := newSuggestService(downEngine(), store).Suggest(context.Background(), "volvo", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"Volvo FH", "Volvo FM"}, primary)
	assert.Equal(t, primary, fallback)
}

func TestSuggestService_DemotesOnPrimaryFailure(t *testing.T) {
	eng := memengine.New()
	store := &scriptedStore{titles: []string{"Scania R"}}
	svc := newSuggestService(eng, store)
	require.True(t, svc.prober.IsAvailable(context.Background()))

	eng.SetFailure(errors.New("timeout"))
	got, err := svc.Suggest(context.Background(), "scania", 8)

	require.NoError(t, err)
	assert.Equal(t, []string{"Scania R"}, got)
	assert.NotEqual(t, AvailabilityUp, svc.prober.State().Load())
}

func TestSuggestService_FallbackFailureIsUnavailable(t *testing.T) {
	store := &scriptedStore{err: errors.New("connection refused")}
	svc := newSuggestService(downEngine(), store)

	_, err := svc.Suggest(context.Background(), "volvo", 8)

	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestSuggestService_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := rediscache.NewSuggestionCache(client, time.Minute)

	store := &scriptedStore{titles: []string{"Volvo FH"}}
	svc := newSuggestService(downEngine(), store, WithSuggestionCache(cache))

	first, err := svc.Suggest(context.Background(), "Volvo", 8)
	require.NoError(t, err)
	second, err := svc.Suggest(context.Background(), "volvo", 8)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls)
}

func TestSuggestService_CacheErrorsAreIgnored(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := rediscache.NewSuggestionCache(client, time.Minute)
	mr.Close()

	store := &scriptedStore{titles: []string{"Volvo FH"}}
	svc := newSuggestService(downEngine(), store, WithSuggestionCache(cache))

	got, err := svc.Suggest(context.Background(), "volvo", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"Volvo FH"}, got)
}

func TestSuggestService_FallbackAgainstMemoryStore(t *testing.T) {
	store := memstore.New()
	store.Put(
		newListing("l-1", "Volvo FH", 1, domain.ConditionUsed, 3),
		newListing("l-2", "VOLVO FH", 1, domain.ConditionUsed, 2),
		newListing("l-3", "Volvo FM", 1, domain.ConditionUsed, 1),
	)
	svc := newSuggestService(downEngine(), store)

	got, err := svc.Suggest(context.Background(), "volvo f", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"Volvo FM", "VOLVO FH"}, got)
}

package properties

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/realty-crm/internal/observability/metrics"
)

func newTestPropertyService(t *testing.T, providers ...Provider) (*Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cache := NewLRUCache(8, 30*time.Minute)
	cache.now = clock.Now
	m := metrics.NewPropertyMetrics(prometheus.NewRegistry())
	var seq atomic.Int64
	normalizer := NewNormalizer("")
	normalizer.suffix = func() int { return int(seq.Add(1)) }
	agg := NewAggregator(providers, nil, WithAggregatorMetrics(m), WithNormalizer(normalizer))
	svc := NewService(cache, agg, DedupByID, m, nil)
	return svc, clock
}

func TestSearchServesCachedPayloadWithinTTL(t *testing.T) {
	mb := magicBricksFake(3)
	svc, clock := newTestPropertyService(t, mb)
	ctx := context.Background()
	params := SearchParams{City: "Mumbai", Bedrooms: "2", Source: SourceAll}

	first, err := svc.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Count)

	clock.Advance(29 * time.Minute)
	second, err := svc.Search(ctx, params)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), mb.calls.Load())
}

func TestSearchRefetchesAfterTTL(t *testing.T) {
	mb := magicBricksFake(1)
	svc, clock := newTestPropertyService(t, mb)
	ctx := context.Background()
	params := SearchParams{City: "Mumbai", Source: SourceAll}

	_, err := svc.Search(ctx, params)
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	_, err = svc.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int32(2), mb.calls.Load())
}

func TestSearchDifferentFiltersMissCache(t *testing.T) {
	mb := magicBricksFake(1)
	svc, _ := newTestPropertyService(t, mb)
	ctx := context.Background()

	_, err := svc.Search(ctx, SearchParams{City: "Mumbai", Bedrooms: "2"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, SearchParams{City: "Mumbai", Bedrooms: "3"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, SearchParams{City: "Mumbai", Bedrooms: "2"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), mb.calls.Load())
}

func TestSearchTotalFailureIsNotCached(t *testing.T) {
	mb := failingFake(SourceMagicBricks, "MagicBricks")
	svc, _ := newTestPropertyService(t, mb)
	ctx := context.Background()

	_, err := svc.Search(ctx, SearchParams{City: "Kolkata"})
	require.ErrorIs(t, err, ErrNoProperties)
	assert.Contains(t, err.Error(), "Kolkata")

	mb.err = nil
	mb.items = []RawItem{{"name": "Recovered"}}
	result, err := svc.Search(ctx, SearchParams{City: "Kolkata"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}

func TestSearchEmptyResultIsNotCached(t *testing.T) {
	empty := &fakeProvider{name: SourceHousing, label: "Housing.com"}
	svc, _ := newTestPropertyService(t, empty)
	ctx := context.Background()

	result, err := svc.Search(ctx, SearchParams{City: "Goa"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Properties)
	assert.NotNil(t, result.Properties)
	assert.Contains(t, result.Message, "Goa")

	_, err = svc.Search(ctx, SearchParams{City: "Goa"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), empty.calls.Load())
}

func TestSearchAppliesDefaults(t *testing.T) {
	mb := magicBricksFake(1)
	svc, _ := newTestPropertyService(t, mb)
	result, err := svc.Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, "New-Delhi", result.City)
	assert.Equal(t, SourceAll, result.Source)
}

func TestFeaturedMergesCities(t *testing.T) {
	mb := &fakeProvider{name: SourceMagicBricks, label: "MagicBricks", items: []RawItem{
		{"id": "m1", "name": "One"}, {"id": "m2", "name": "Two"}, {"id": "m3", "name": "Three"},
	}}
	housing := &fakeProvider{name: SourceHousing, label: "Housing.com", items: []RawItem{{"id": "h1", "name": "H"}}}
	svc, _ := newTestPropertyService(t, mb, housing)

	out, err := svc.Featured(context.Background(), []string{"Mumbai", "Pune"}, "2,3")
	require.NoError(t, err)
	// Stable ids repeat across cities and collapse.
	assert.Len(t, out.Properties, 4)
	assert.Equal(t, 4, out.Statistics.TotalProperties)
	assert.Equal(t, 3, out.Statistics.BySource["MagicBricks"])
	assert.Equal(t, 1, out.Statistics.BySource["Housing.com"])
	assert.Len(t, out.Featured, 3)
	assert.Equal(t, 3, out.Statistics.FeaturedProperties)
}

type citySearcher struct {
	failing map[string]bool
}

func (s citySearcher) Search(_ context.Context, p SearchParams) ([]Listing, error) {
	if s.failing[p.City] {
		return nil, &FetchError{City: p.City, Causes: map[string]error{"x": errors.New("down")}}
	}
	return []Listing{{ID: p.City + "-1", Source: "MagicBricks"}}, nil
}

func TestFeaturedToleratesCityFailures(t *testing.T) {
	svc := NewService(nil, citySearcher{failing: map[string]bool{"Mumbai": true}}, DedupByID, nil, nil)
	out, err := svc.Featured(context.Background(), []string{"Mumbai", "Pune"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mumbai"}, out.Failed)
	assert.Len(t, out.Properties, 1)

	svc = NewService(nil, citySearcher{failing: map[string]bool{"Mumbai": true, "Pune": true}}, DedupByID, nil, nil)
	_, err = svc.Featured(context.Background(), []string{"Mumbai", "Pune"}, "")
	require.ErrorIs(t, err, ErrNoProperties)
	assert.Contains(t, err.Error(), "Mumbai, Pune")
}

type gatedSearcher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *gatedSearcher) Search(_ context.Context, p SearchParams) ([]Listing, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return []Listing{{ID: p.City, Source: "MagicBricks"}}, nil
}

func TestFeaturedBoundsConcurrentCitySearches(t *testing.T) {
	searcher := &gatedSearcher{}
	svc := NewService(nil, searcher, DedupByID, nil, nil)

	out, err := svc.Featured(context.Background(), []string{"A", "B", "C", "D", "E"}, "")
	require.NoError(t, err)
	assert.Len(t, out.Properties, 5)
	assert.LessOrEqual(t, searcher.peak.Load(), int32(featuredConcurrency))
}

func TestFeaturedValidatesCityList(t *testing.T) {
	svc := NewService(nil, citySearcher{}, DedupByID, nil, nil)

	_, err := svc.Featured(context.Background(), []string{" ", ""}, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Featured(context.Background(), []string{"A", "B", "C", "D", "E", "F"}, "")
	require.ErrorIs(t, err, ErrValidation)

	out, err := svc.Featured(context.Background(), []string{"A", "a", "B", "C", "D", "E", "e"}, "")
	require.NoError(t, err, "repeats are collapsed before the limit applies")
	assert.Len(t, out.Properties, 5)
}

func TestUniqueCities(t *testing.T) {
	assert.Equal(t, []string{"Mumbai", "Pune"}, uniqueCities([]string{" Mumbai", "mumbai", "", "Pune", "PUNE"}))
}

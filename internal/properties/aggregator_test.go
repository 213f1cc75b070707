package properties

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/realty-crm/internal/observability/metrics"
)

func TestAggregatorToleratesPartialFailure(t *testing.T) {
	mb := failingFake(SourceMagicBricks, "MagicBricks")
	housing := &fakeProvider{name: SourceHousing, label: "Housing.com", items: []RawItem{
		{"name": "A", "source": "Housing.com"}, {"name": "B", "source": "Housing.com"}, {"name": "C", "source": "Housing.com"},
	}}
	agg := NewAggregator([]Provider{mb, housing}, nil,
		WithAggregatorMetrics(metrics.NewPropertyMetrics(prometheus.NewRegistry())))

	listings, err := agg.Search(context.Background(), SearchParams{City: "Mumbai", Bedrooms: "2", Source: SourceAll})
	require.NoError(t, err)
	require.Len(t, listings, 3)
	for _, l := range listings {
		assert.Equal(t, "Housing.com", l.Source)
	}
	assert.Equal(t, int32(1), mb.calls.Load())
}

func TestAggregatorTagsUntaggedItems(t *testing.T) {
	mb := magicBricksFake(2)
	agg := NewAggregator([]Provider{mb}, nil)
	listings, err := agg.Search(context.Background(), SearchParams{City: "Pune", Source: SourceAll})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "MagicBricks", listings[0].Source)
}

func TestAggregatorTotalFailureNamesCity(t *testing.T) {
	agg := NewAggregator([]Provider{
		failingFake(SourceMagicBricks, "MagicBricks"),
		failingFake(SourceHousing, "Housing.com"),
	}, nil)

	_, err := agg.Search(context.Background(), SearchParams{City: "Chennai", Source: SourceAll})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProperties)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "Chennai", fetchErr.City)
	assert.Contains(t, err.Error(), "Chennai")
	assert.Len(t, fetchErr.Causes, 2)
}

func TestAggregatorSuccessWithZeroItems(t *testing.T) {
	agg := NewAggregator([]Provider{
		failingFake(SourceMagicBricks, "MagicBricks"),
		&fakeProvider{name: SourceHousing, label: "Housing.com"},
	}, nil)
	listings, err := agg.Search(context.Background(), SearchParams{City: "Goa", Source: SourceAll})
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestAggregatorSingleSource(t *testing.T) {
	mb := magicBricksFake(1)
	housing := &fakeProvider{name: SourceHousing, label: "Housing.com", items: []RawItem{{"name": "H"}}}
	agg := NewAggregator([]Provider{mb, housing}, nil)

	listings, err := agg.Search(context.Background(), SearchParams{City: "Pune", Source: SourceHousing})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, int32(0), mb.calls.Load())

	housing.err = errors.New("blocked")
	_, err = agg.Search(context.Background(), SearchParams{City: "Pune", Source: SourceHousing})
	assert.ErrorIs(t, err, ErrNoProperties)

	_, err = agg.Search(context.Background(), SearchParams{City: "Pune", Source: "nobroker"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAggregatorFetchesConcurrently(t *testing.T) {
	slow := func(name string) *fakeProvider {
		return &fakeProvider{name: name, label: name, delay: 200 * time.Millisecond, items: []RawItem{{"name": name}}}
	}
	agg := NewAggregator([]Provider{slow("a"), slow("b"), slow("c")}, nil)

	start := time.Now()
	listings, err := agg.Search(context.Background(), SearchParams{City: "Pune", Source: SourceAll})
	require.NoError(t, err)
	assert.Len(t, listings, 3)
	assert.Less(t, time.Since(start), 550*time.Millisecond)
}

func TestAggregatorProviderTimeoutIsAFailure(t *testing.T) {
	hung := &fakeProvider{name: SourceMagicBricks, label: "MagicBricks", delay: time.Minute}
	fast := &fakeProvider{name: SourceHousing, label: "Housing.com", items: []RawItem{{"name": "H"}}}
	agg := NewAggregator([]Provider{hung, fast}, nil, WithProviderTimeout(50*time.Millisecond))

	listings, err := agg.Search(context.Background(), SearchParams{City: "Pune", Source: SourceAll})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Housing.com", listings[0].Source)
}

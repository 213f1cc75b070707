package properties

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/realty-crm/internal/observability/metrics"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

const (
	featuredPerSource   = 2
	featuredConcurrency = 3
	// MaxFeaturedCities bounds one featured request; each city costs one
	// actor run per provider on a cache miss.
	MaxFeaturedCities = 5
)

// Searcher is the provider fan-out used by Service. *Aggregator satisfies it.
type Searcher interface {
	Search(ctx context.Context, params SearchParams) ([]Listing, error)
}

// Service answers property searches from the cache, falling back to the aggregator.
type Service struct {
	cache      Cache
	aggregator Searcher
	dedup      DedupMode
	metrics    *metrics.PropertyMetrics
	logger     *logging.Logger
}

func NewService(cache Cache, aggregator Searcher, dedup DedupMode, m *metrics.PropertyMetrics, logger *logging.Logger) *Service {
	if cache == nil {
		cache = NewLRUCache(DefaultCacheSize, DefaultCacheTTL)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if dedup == "" {
		dedup = DedupByID
	}
	return &Service{cache: cache, aggregator: aggregator, dedup: dedup, metrics: m, logger: logger}
}

// Search returns the cached result for params when fresh, otherwise fetches and
// caches a non-empty result. Failed and empty searches are not cached.
func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params = params.withDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	key := params.CacheKey()
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.metrics.ObserveCacheLookup(true)
		s.logger.Debug("property cache hit", "key", key)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup(false)

	listings, err := s.aggregator.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return &SearchResult{
			Success:    true,
			Properties: []Listing{},
			Message:    fmt.Sprintf("No properties found matching your criteria in %s", params.City),
		}, nil
	}

	result := &SearchResult{
		Success:    true,
		Properties: listings,
		City:       params.City,
		Source:     params.Source,
		Count:      len(listings),
	}
	s.cache.Set(ctx, key, result)
	s.logger.Info("property search fetched", "city", params.City, "source", params.Source, "count", result.Count)
	return result, nil
}

// Statistics summarises a featured aggregation.
type Statistics struct {
	TotalProperties    int            `json:"totalProperties"`
	FeaturedProperties int            `json:"featuredProperties"`
	BySource           map[string]int `json:"bySource"`
}

// FeaturedResult is the dashboard view across several cities.
type FeaturedResult struct {
	Success    bool       `json:"success"`
	Properties []Listing  `json:"properties"`
	Featured   []Listing  `json:"featured"`
	Statistics Statistics `json:"statistics"`
	Failed     []string   `json:"failedCities,omitempty"`
}

// Featured runs one cached all-source search per city concurrently, merges and
// deduplicates the listings, and picks up to two listings per source.
func (s *Service) Featured(ctx context.Context, cities []string, bedrooms string) (*FeaturedResult, error) {
	cities = uniqueCities(cities)
	if len(cities) == 0 {
		return nil, &ValidationError{Field: "cities", Message: "at least one city is required"}
	}
	if len(cities) > MaxFeaturedCities {
		return nil, &ValidationError{Field: "cities", Message: fmt.Sprintf("at most %d cities are allowed", MaxFeaturedCities)}
	}

	results := make([]*SearchResult, len(cities))
	errs := make([]error, len(cities))
	sem := make(chan struct{}, featuredConcurrency)
	var wg sync.WaitGroup
	for i, city := range cities {
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			defer func() { <-sem }()
			results[i], errs[i] = s.Search(ctx, SearchParams{City: city, Bedrooms: bedrooms, Source: SourceAll})
		}(i, city)
	}
	wg.Wait()

	var merged []Listing
	var failed []string
	causes := map[string]error{}
	for i, city := range cities {
		if errs[i] != nil {
			failed = append(failed, city)
			causes[city] = errs[i]
			s.logger.Warn("featured city search failed", "city", city, "error", errs[i])
			continue
		}
		merged = append(merged, results[i].Properties...)
	}
	if len(failed) == len(cities) {
		return nil, &FetchError{City: strings.Join(cities, ", "), Causes: causes}
	}

	merged = Dedup(merged, s.dedup)
	out := &FeaturedResult{
		Success:    true,
		Properties: merged,
		Featured:   []Listing{},
		Failed:     failed,
		Statistics: Statistics{BySource: map[string]int{}},
	}
	picked := map[string]int{}
	for _, l := range merged {
		out.Statistics.BySource[l.Source]++
		if picked[l.Source] < featuredPerSource {
			picked[l.Source]++
			out.Featured = append(out.Featured, l)
		}
	}
	out.Statistics.TotalProperties = len(merged)
	out.Statistics.FeaturedProperties = len(out.Featured)
	return out, nil
}

// uniqueCities trims names and drops blanks and case-insensitive repeats,
// keeping the first spelling.
func uniqueCities(cities []string) []string {
	seen := make(map[string]struct{}, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

package properties

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/realty-crm/internal/observability/metrics"
	"github.com/wolfman30/realty-crm/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultProviderTimeout = 90 * time.Second

// Aggregator fans a search out to the listing providers and normalizes the
// combined output. It performs a single attempt per provider.
type Aggregator struct {
	providers  []Provider
	normalizer *Normalizer
	timeout    time.Duration
	metrics    *metrics.PropertyMetrics
	tracer     trace.Tracer
	logger     *logging.Logger
}

// AggregatorOption customises an Aggregator.
type AggregatorOption func(*Aggregator)

func WithProviderTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithAggregatorMetrics(m *metrics.PropertyMetrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

func WithNormalizer(n *Normalizer) AggregatorOption {
	return func(a *Aggregator) {
		if n != nil {
			a.normalizer = n
		}
	}
}

func NewAggregator(providers []Provider, logger *logging.Logger, opts ...AggregatorOption) *Aggregator {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Aggregator{
		providers:  providers,
		normalizer: NewNormalizer(""),
		timeout:    DefaultProviderTimeout,
		tracer:     otel.Tracer("realty.internal.properties.aggregator"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type providerOutcome struct {
	provider Provider
	items    []RawItem
	err      error
}

// Search fetches from the provider named by params.Source, or from every
// provider concurrently for "all". Individual failures are skipped; a
// *FetchError is returned only when no provider succeeded.
func (a *Aggregator) Search(ctx context.Context, params SearchParams) ([]Listing, error) {
	ctx, span := a.tracer.Start(ctx, "properties.aggregate", trace.WithAttributes(
		attribute.String("properties.city", params.City),
		attribute.String("properties.source", params.Source),
	))
	defer span.End()

	selected, err := a.selectProviders(params.Source)
	if err != nil {
		return nil, err
	}

	outcomes := make([]providerOutcome, len(selected))
	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			items, err := a.fetch(ctx, p, params)
			outcomes[i] = providerOutcome{provider: p, items: items, err: err}
		}(i, p)
	}
	wg.Wait()

	listings := []Listing{}
	failures := map[string]error{}
	succeeded := 0
	for _, out := range outcomes {
		if out.err != nil {
			failures[out.provider.Name()] = out.err
			a.logger.Warn("property provider failed", "provider", out.provider.Name(), "city", params.City, "error", out.err)
			continue
		}
		succeeded++
		for _, item := range out.items {
			if item == nil {
				continue
			}
			listings = append(listings, a.normalizer.Normalize(item, out.provider, params))
		}
	}
	if succeeded == 0 {
		err := &FetchError{City: params.City, Causes: failures}
		span.RecordError(err)
		span.SetStatus(codes.Error, "all providers failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("properties.count", len(listings)))
	return listings, nil
}

func (a *Aggregator) selectProviders(source string) ([]Provider, error) {
	if source == "" || source == SourceAll {
		if len(a.providers) == 0 {
			return nil, fmt.Errorf("properties: no providers registered")
		}
		return a.providers, nil
	}
	for _, p := range a.providers {
		if p.Name() == source {
			return []Provider{p}, nil
		}
	}
	return nil, &ValidationError{Field: "source", Message: fmt.Sprintf("unknown source %q", source)}
}

func (a *Aggregator) fetch(ctx context.Context, p Provider, params SearchParams) ([]RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	ctx, span := a.tracer.Start(ctx, "properties.provider_fetch", trace.WithAttributes(attribute.String("properties.provider", p.Name())))
	defer span.End()

	start := time.Now()
	items, err := p.Fetch(ctx, params)
	a.metrics.ObserveProviderFetch(p.Name(), err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return items, err
}

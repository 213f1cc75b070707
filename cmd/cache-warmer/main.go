package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/realty-crm/internal/app/bootstrap"
	appconfig "github.com/wolfman30/realty-crm/internal/config"
	"github.com/wolfman30/realty-crm/internal/observability/metrics"
	"github.com/wolfman30/realty-crm/internal/properties"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

// searcher is the slice of properties.Service the warmer drives.
type searcher interface {
	Search(ctx context.Context, params properties.SearchParams) (*properties.SearchResult, error)
}

type warmSummary struct {
	Warmed   []string          `json:"warmed"`
	Empty    []string          `json:"empty,omitempty"`
	Failed   map[string]string `json:"failed,omitempty"`
	Listings int               `json:"listings"`
}

var errNothingWarmed = errors.New("cache-warmer: no city could be warmed")

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	redisClient := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true)
	if redisClient == nil {
		logger.Error("REDIS_ADDR must point at a reachable redis for the shared search cache")
		os.Exit(1)
	}
	cfg.PropertyCacheRedis = true

	m := metrics.NewPropertyMetrics(prometheus.NewRegistry())
	svc, err := bootstrap.BuildPropertyService(cfg, bootstrap.BuildPropertyCache(cfg, redisClient, logger), m, logger)
	if err != nil {
		logger.Error("failed to build property service", "error", err)
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context, evt events.CloudWatchEvent) (warmSummary, error) {
		logger.Info("cache warm triggered", "source", evt.Source, "cities", cfg.WarmCities)
		return warm(ctx, svc, cfg.WarmCities, logger)
	})
}

// warm runs the default search for each city so the shared cache is populated
// before users ask. Cities are searched one at a time to stay within the
// scraper's concurrency allowance.
func warm(ctx context.Context, svc searcher, cities []string, logger *logging.Logger) (warmSummary, error) {
	summary := warmSummary{Warmed: []string{}, Failed: map[string]string{}}
	for _, city := range cities {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			summary.Failed[city] = err.Error()
			continue
		}
		result, err := svc.Search(ctx, properties.SearchParams{City: city})
		if err != nil {
			logger.Warn("cache warm failed", "city", city, "error", err)
			summary.Failed[city] = err.Error()
			continue
		}
		if result == nil || result.Count <= 0 {
			logger.Warn("cache warm returned no listings", "city", city)
			summary.Empty = append(summary.Empty, city)
			continue
		}
		summary.Warmed = append(summary.Warmed, city)
		summary.Listings += result.Count
		logger.Info("cache warmed", "city", city, "count", result.Count)
	}
	if len(summary.Warmed) == 0 && len(summary.Failed) > 0 {
		return summary, fmt.Errorf("%w: %d failures", errNothingWarmed, len(summary.Failed))
	}
	return summary, nil
}

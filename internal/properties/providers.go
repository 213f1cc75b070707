package properties

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultMagicBricksActorID = "OGrVzUv64ImXJ1Cen"
	DefaultHousingActorID     = "2r88Kn1xhj9HiIvR8"
)

// ActorRunner runs an Apify actor. *ApifyClient satisfies it.
type ActorRunner interface {
	RunSync(ctx context.Context, actorID string, input ActorInput) ([]RawItem, error)
}

// MagicBricksProvider scrapes MagicBricks search result pages.
type MagicBricksProvider struct {
	runner  ActorRunner
	actorID string
}

func NewMagicBricksProvider(runner ActorRunner, actorID string) *MagicBricksProvider {
	if strings.TrimSpace(actorID) == "" {
		actorID = DefaultMagicBricksActorID
	}
	return &MagicBricksProvider{runner: runner, actorID: actorID}
}

func (p *MagicBricksProvider) Name() string    { return SourceMagicBricks }
func (p *MagicBricksProvider) Label() string   { return "MagicBricks" }
func (p *MagicBricksProvider) SiteURL() string { return "https://www.magicbricks.com" }

// SearchURL builds the MagicBricks results page for the filters.
func (p *MagicBricksProvider) SearchURL(params SearchParams) string {
	q := url.Values{}
	q.Set("bedroom", params.Bedrooms)
	q.Set("proptype", params.PropertyType)
	q.Set("cityName", params.City)
	return p.SiteURL() + "/property-for-sale/residential-real-estate?" + q.Encode()
}

func (p *MagicBricksProvider) Fetch(ctx context.Context, params SearchParams) ([]RawItem, error) {
	items, err := p.runner.RunSync(ctx, p.actorID, ActorInput{
		URLs:             []string{p.SearchURL(params)},
		MaxItemsPerURL:   30,
		MaxRetriesPerURL: 2,
		Proxy: ProxyInput{
			UseApifyProxy:     true,
			ApifyProxyGroups:  []string{"RESIDENTIAL"},
			ApifyProxyCountry: "US",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("magicbricks: %w", err)
	}
	return items, nil
}

// HousingProvider scrapes Housing.com project pages. Only the city filter applies.
type HousingProvider struct {
	runner  ActorRunner
	actorID string
}

func NewHousingProvider(runner ActorRunner, actorID string) *HousingProvider {
	if strings.TrimSpace(actorID) == "" {
		actorID = DefaultHousingActorID
	}
	return &HousingProvider{runner: runner, actorID: actorID}
}

func (p *HousingProvider) Name() string    { return SourceHousing }
func (p *HousingProvider) Label() string   { return "Housing.com" }
func (p *HousingProvider) SiteURL() string { return "https://housing.com" }

// SearchURL builds the Housing.com projects page, e.g. New-Delhi -> new_delhi.
func (p *HousingProvider) SearchURL(params SearchParams) string {
	city := strings.ToLower(strings.ReplaceAll(params.City, "-", "_"))
	return p.SiteURL() + "/in/buy/projects/" + url.PathEscape(city)
}

func (p *HousingProvider) Fetch(ctx context.Context, params SearchParams) ([]RawItem, error) {
	items, err := p.runner.RunSync(ctx, p.actorID, ActorInput{
		URLs:             []string{p.SearchURL(params)},
		MaxItemsPerURL:   20,
		MaxRetriesPerURL: 2,
		Proxy:            ProxyInput{UseApifyProxy: false},
	})
	if err != nil {
		return nil, fmt.Errorf("housing: %w", err)
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		item["source"] = p.Label()
	}
	return items, nil
}

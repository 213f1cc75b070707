package properties

import (
	"context"
	"net/url"
	"strings"
)

// Provider identifiers accepted by the source query parameter.
const (
	SourceAll         = "all"
	SourceMagicBricks = "magicbricks"
	SourceHousing     = "housing"
)

const (
	defaultBedrooms     = "2,3"
	defaultPropertyType = "Multistorey-Apartment,Builder-Floor-Apartment,Penthouse,Studio-Apartment,Residential-House,Villa"
	defaultCity         = "New-Delhi"
)

// RawItem is one listing as returned by a scraping actor. Field names vary per site.
type RawItem map[string]any

// Listing is the normalized property shape served to the SPA.
type Listing struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	Location    string `json:"location"`
	Bedrooms    string `json:"bedrooms"`
	Bathrooms   string `json:"bathrooms"`
	Area        string `json:"area"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	URL         string `json:"url"`
	Landmark    string `json:"landmark"`
	OwnerName   string `json:"ownerName"`
	PostedDate  string `json:"postedDate"`
	Source      string `json:"source"`
}

// SearchParams are the property search filters. Bedrooms and PropertyType keep
// the comma-joined form the listing sites expect.
type SearchParams struct {
	City         string `json:"city"`
	Bedrooms     string `json:"bedrooms"`
	PropertyType string `json:"propertyType"`
	Source       string `json:"source"`
}

// ParseSearchParams reads filters from a query string, filling the defaults for
// anything absent.
func ParseSearchParams(q url.Values) (SearchParams, error) {
	p := SearchParams{
		City:         strings.TrimSpace(q.Get("city")),
		Bedrooms:     strings.TrimSpace(q.Get("bedrooms")),
		PropertyType: strings.TrimSpace(q.Get("propertyType")),
		Source:       strings.ToLower(strings.TrimSpace(q.Get("source"))),
	}
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return SearchParams{}, err
	}
	return p, nil
}

func (p SearchParams) withDefaults() SearchParams {
	if p.City == "" {
		p.City = defaultCity
	}
	if p.Bedrooms == "" {
		p.Bedrooms = defaultBedrooms
	}
	if p.PropertyType == "" {
		p.PropertyType = defaultPropertyType
	}
	if p.Source == "" {
		p.Source = SourceAll
	}
	return p
}

// Validate rejects unknown source selectors.
func (p SearchParams) Validate() error {
	switch p.Source {
	case SourceAll, SourceMagicBricks, SourceHousing:
		return nil
	default:
		return &ValidationError{Field: "source", Message: "source must be one of all, magicbricks, housing"}
	}
}

// CacheKey is the order-sensitive concatenation source-city-bedrooms-propertyType.
func (p SearchParams) CacheKey() string {
	return p.Source + "-" + p.City + "-" + p.Bedrooms + "-" + p.PropertyType
}

// SearchResult is the payload of a property search. It is cached as a whole and
// must not be mutated once stored.
type SearchResult struct {
	Success    bool      `json:"success"`
	Properties []Listing `json:"properties"`
	City       string    `json:"city,omitempty"`
	Source     string    `json:"source,omitempty"`
	Count      int       `json:"count"`
	Message    string    `json:"message,omitempty"`
}

// Provider fetches raw listings from one listing site.
type Provider interface {
	// Name is the source selector, e.g. "magicbricks".
	Name() string
	// Label is the source tag stamped on listings, e.g. "MagicBricks".
	Label() string
	// SiteURL is the base used to resolve relative listing links.
	SiteURL() string
	Fetch(ctx context.Context, params SearchParams) ([]RawItem, error)
}

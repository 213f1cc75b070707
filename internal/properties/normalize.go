package properties

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultCurrencySymbol = "₹"
	defaultTitle          = "Property Listing"
	priceOnRequest        = "Price on request"
	notSpecified          = "Not specified"
)

// Normalizer maps heterogeneous actor output onto Listing.
type Normalizer struct {
	currency string
	printer  *message.Printer
	now      func() time.Time
	suffix   func() int
}

// NewNormalizer returns a normalizer that prefixes numeric prices with currency.
func NewNormalizer(currency string) *Normalizer {
	if strings.TrimSpace(currency) == "" {
		currency = defaultCurrencySymbol
	}
	return &Normalizer{
		currency: currency,
		printer:  message.NewPrinter(language.English),
		now:      time.Now,
		suffix:   func() int { return rand.IntN(1000) },
	}
}

// Normalize converts one raw item. provider supplies the default source tag and
// the base for relative links; an existing source tag on the item is kept.
func (n *Normalizer) Normalize(item RawItem, provider Provider, params SearchParams) Listing {
	source := firstString(item, "source")
	if source == "" {
		source = provider.Label()
	}

	l := Listing{
		ID:          firstString(item, "id", "_id", "prop_id"),
		Title:       orDefault(firstString(item, "name", "title"), defaultTitle),
		Price:       n.price(item),
		Location:    n.location(item),
		Bedrooms:    orDefault(firstString(item, "bedrooms", "bedroom"), orDefault(params.Bedrooms, notSpecified)),
		Bathrooms:   orDefault(firstString(item, "bathrooms", "bathroom"), notSpecified),
		Area:        area(item),
		Description: orDefault(firstString(item, "description", "seo_description"), "No description available"),
		ImageURL:    firstString(item, "imageUrl", "image_url", "image"),
		URL:         absoluteURL(firstString(item, "url", "link"), provider.SiteURL()),
		Landmark:    firstString(item, "landmark"),
		OwnerName:   firstString(item, "owner_name", "ownerName"),
		PostedDate:  postedDate(item["posted_date"]),
		Source:      source,
	}
	if l.ID == "" {
		l.ID = n.syntheticID(provider.Name())
	}
	return l
}

// syntheticID is unique per call only; the same listing gets a new id on every fetch.
func (n *Normalizer) syntheticID(provider string) string {
	prefix := "mb"
	if provider == SourceHousing {
		prefix = "hs"
	}
	return fmt.Sprintf("%s-%d-%d", prefix, n.now().UnixMilli(), n.suffix())
}

func (n *Normalizer) price(item RawItem) string {
	if display := firstString(item, "price_display_value", "priceDisplay"); display != "" {
		return display
	}
	if v, ok := number(item["price"]); ok {
		if v <= 0 {
			return priceOnRequest
		}
		return n.formatAmount(v)
	}
	if s := firstString(item, "price"); s != "" {
		return s
	}
	return priceOnRequest
}

func (n *Normalizer) formatAmount(v float64) string {
	if v == math.Trunc(v) && v < math.MaxInt64 {
		return n.printer.Sprintf("%s%d", n.currency, int64(v))
	}
	return n.printer.Sprintf("%s%.2f", n.currency, v)
}

func (n *Normalizer) location(item RawItem) string {
	if loc := firstString(item, "address", "location", "city_name"); loc != "" {
		return loc
	}
	return "Location not specified"
}

func area(item RawItem) string {
	if a := firstString(item, "area"); a != "" {
		return a
	}
	size := firstString(item, "covered_area", "carpet_area")
	unit := orDefault(firstString(item, "cov_area_unit", "carp_area_unit"), "sq.ft.")
	if size == "" {
		return notSpecified
	}
	return size + " " + unit
}

func absoluteURL(raw, base string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(raw, "/")
}

var postedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, '06",
	"Jan 2, 2006",
}

func postedDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		// epoch milliseconds
		return time.UnixMilli(int64(t)).UTC().Format("2006-01-02")
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range postedDateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.Format("2006-01-02")
			}
		}
		return s
	default:
		return fmt.Sprint(t)
	}
}

// firstString returns the first alias holding a non-empty scalar, as a string.
func firstString(item RawItem, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		return f, err == nil
	}
	return 0, false
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

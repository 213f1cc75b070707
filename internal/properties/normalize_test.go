package properties

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testNormalizer() *Normalizer {
	n := NewNormalizer("")
	n.now = func() time.Time { return time.UnixMilli(1717000000000) }
	n.suffix = func() int { return 7 }
	return n
}

func TestNormalizeDefaults(t *testing.T) {
	n := testNormalizer()
	mb := NewMagicBricksProvider(nil, "")
	l := n.Normalize(RawItem{"price": float64(4500000)}, mb, SearchParams{Bedrooms: "2,3"})

	assert.Equal(t, "Property Listing", l.Title)
	assert.True(t, strings.HasPrefix(l.Price, "₹"), l.Price)
	assert.Equal(t, "₹4,500,000", l.Price)
	assert.Equal(t, "Location not specified", l.Location)
	assert.Equal(t, "2,3", l.Bedrooms)
	assert.Equal(t, "Not specified", l.Bathrooms)
	assert.Equal(t, "MagicBricks", l.Source)
	assert.Equal(t, "mb-1717000000000-7", l.ID)
}

func TestNormalizeAliases(t *testing.T) {
	n := testNormalizer()
	mb := NewMagicBricksProvider(nil, "")
	l := n.Normalize(RawItem{
		"id":                  "p-1",
		"title":               "3BHK in Bandra",
		"price_display_value": "₹2.1 Cr",
		"price":               float64(21000000),
		"city_name":           "Mumbai",
		"bedrooms":            float64(3),
		"covered_area":        float64(1450),
		"seo_description":     "Sea facing",
		"image_url":           "https://img/1.jpg",
		"url":                 "propertyDetails/3-BHK-Bandra",
		"owner_name":          "R. Mehta",
		"posted_date":         "2024-05-03T10:00:00Z",
	}, mb, SearchParams{})

	assert.Equal(t, "p-1", l.ID)
	assert.Equal(t, "3BHK in Bandra", l.Title)
	assert.Equal(t, "₹2.1 Cr", l.Price)
	assert.Equal(t, "Mumbai", l.Location)
	assert.Equal(t, "3", l.Bedrooms)
	assert.Equal(t, "1450 sq.ft.", l.Area)
	assert.Equal(t, "Sea facing", l.Description)
	assert.Equal(t, "https://img/1.jpg", l.ImageURL)
	assert.Equal(t, "https://www.magicbricks.com/propertyDetails/3-BHK-Bandra", l.URL)
	assert.Equal(t, "R. Mehta", l.OwnerName)
	assert.Equal(t, "2024-05-03", l.PostedDate)
}

func TestNormalizeKeepsExistingSourceTag(t *testing.T) {
	n := testNormalizer()
	housing := NewHousingProvider(nil, "")
	l := n.Normalize(RawItem{"name": "Godrej Park", "source": "Housing.com", "price": "On request"}, housing, SearchParams{})
	assert.Equal(t, "Housing.com", l.Source)
	assert.Equal(t, "Godrej Park", l.Title)
	assert.Equal(t, "On request", l.Price)
	assert.True(t, strings.HasPrefix(l.ID, "hs-"))
}

func TestNormalizePriceOnRequest(t *testing.T) {
	n := testNormalizer()
	l := n.Normalize(RawItem{}, NewMagicBricksProvider(nil, ""), SearchParams{})
	assert.Equal(t, "Price on request", l.Price)
}

func TestNormalizeNonPositivePriceIsOnRequest(t *testing.T) {
	n := testNormalizer()
	mb := NewMagicBricksProvider(nil, "")
	for _, price := range []any{float64(0), float64(-5), "0", " -1,000 ", 0} {
		l := n.Normalize(RawItem{"price": price}, mb, SearchParams{})
		assert.Equal(t, "Price on request", l.Price, "price %v", price)
	}

	l := n.Normalize(RawItem{"price": 1234.5}, mb, SearchParams{})
	assert.Equal(t, "₹1,234.50", l.Price)
	l = n.Normalize(RawItem{"price": "2500000"}, mb, SearchParams{})
	assert.Equal(t, "₹2,500,000", l.Price)
}

func TestSyntheticIDsAreNotStable(t *testing.T) {
	n := NewNormalizer("$")
	mb := NewMagicBricksProvider(nil, "")
	seq := 0
	n.suffix = func() int { seq++; return seq }
	a := n.Normalize(RawItem{"name": "Flat"}, mb, SearchParams{})
	b := n.Normalize(RawItem{"name": "Flat"}, mb, SearchParams{})
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDedupModes(t *testing.T) {
	listings := []Listing{
		{ID: "a", Title: "Flat", Location: "Mumbai", Price: "₹1", Source: "MagicBricks"},
		{ID: "a", Title: "Other", Source: "MagicBricks"},
		{ID: "b", Title: "Flat", Location: "Mumbai", Price: "₹1", Source: "MagicBricks"},
	}
	byID := Dedup(listings, DedupByID)
	assert.Len(t, byID, 2)
	assert.Equal(t, "Flat", byID[0].Title)

	byContent := Dedup(listings, DedupByContent)
	assert.Len(t, byContent, 2)
	assert.Equal(t, "Other", byContent[1].Title)

	assert.Equal(t, DedupByContent, ParseDedupMode(" Content "))
	assert.Equal(t, DedupByID, ParseDedupMode("bogus"))
}

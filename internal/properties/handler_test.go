package properties

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveProperties(t *testing.T, svc *Service, target string) (int, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api/properties", NewHandler(svc, nil, nil).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHandlerSearchSuccess(t *testing.T) {
	svc, _ := newTestPropertyService(t, failingFake(SourceMagicBricks, "MagicBricks"),
		&fakeProvider{name: SourceHousing, label: "Housing.com", items: []RawItem{{"name": "A"}, {"name": "B"}, {"name": "C"}}})

	code, body := serveProperties(t, svc, "/api/properties?city=Mumbai&bedrooms=2&source=all")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, "all", body["source"])
	assert.Equal(t, "Mumbai", body["city"])
}

func TestHandlerSearchTotalFailure(t *testing.T) {
	svc, _ := newTestPropertyService(t, failingFake(SourceMagicBricks, "MagicBricks"), failingFake(SourceHousing, "Housing.com"))

	code, body := serveProperties(t, svc, "/api/properties?city=Mumbai")
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to fetch properties from Mumbai", body["error"])
	assert.Contains(t, body["message"], "Mumbai")
	assert.NotEmpty(t, body["details"])
}

func TestHandlerSearchUnknownSource(t *testing.T) {
	svc, _ := newTestPropertyService(t, magicBricksFake(1))
	code, body := serveProperties(t, svc, "/api/properties?source=nobroker")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestHandlerFeaturedDefaultsCities(t *testing.T) {
	mb := magicBricksFake(2)
	svc, _ := newTestPropertyService(t, mb)
	code, body := serveProperties(t, svc, "/api/properties/featured")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int32(3), mb.calls.Load())
	stats := body["statistics"].(map[string]any)
	assert.Equal(t, float64(6), stats["totalProperties"])
	assert.Equal(t, float64(2), stats["featuredProperties"])
}

func TestHandlerFeaturedRejectsTooManyCities(t *testing.T) {
	mb := magicBricksFake(1)
	svc, _ := newTestPropertyService(t, mb)

	cities := make([]string, MaxFeaturedCities+1)
	for i := range cities {
		cities[i] = fmt.Sprintf("City%d", i)
	}
	code, body := serveProperties(t, svc, "/api/properties/featured?cities="+strings.Join(cities, ","))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "at most")
	assert.Equal(t, int32(0), mb.calls.Load(), "no provider runs for a rejected request")
}

func TestHandlerFeaturedCollapsesRepeatedCities(t *testing.T) {
	mb := magicBricksFake(1)
	svc, _ := newTestPropertyService(t, mb)

	repeated := strings.Repeat("Mumbai,mumbai, MUMBAI ,", 4) + "Pune"
	code, _ := serveProperties(t, svc, "/api/properties/featured?cities="+url.QueryEscape(repeated))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int32(2), mb.calls.Load())
}

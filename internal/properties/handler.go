package properties

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

var defaultFeaturedCities = []string{"New-Delhi", "Mumbai", "Bangalore"}

// Handler serves the property search endpoints.
type Handler struct {
	service *Service
	cities  []string
	logger  *logging.Logger
}

// NewHandler creates a property handler. cities is the default featured set.
func NewHandler(service *Service, cities []string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if len(cities) == 0 {
		cities = defaultFeaturedCities
	}
	return &Handler{service: service, cities: cities, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Search)
	r.Get("/featured", h.Featured)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

// Search handles GET /api/properties
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := ParseSearchParams(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	result, err := h.service.Search(r.Context(), params)
	if err != nil {
		h.writeError(w, params.City, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Featured handles GET /api/properties/featured
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	cities := splitList(r.URL.Query().Get("cities"))
	if len(cities) == 0 {
		cities = h.cities
	}
	bedrooms := strings.TrimSpace(r.URL.Query().Get("bedrooms"))
	result, err := h.service.Featured(r.Context(), cities, bedrooms)
	if err != nil {
		h.writeError(w, strings.Join(cities, ", "), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, city string, err error) {
	if errors.Is(err, ErrValidation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		city = fetchErr.City
	}
	h.logger.Error("property search failed", "city", city, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   fmt.Sprintf("Failed to fetch properties from %s", city),
		Details: err.Error(),
		Message: fmt.Sprintf("We're currently experiencing difficulties fetching properties in %s. Please try again later or try a different city.", city),
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

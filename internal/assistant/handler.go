package assistant

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

// Handler serves POST /chatbot.
type Handler struct {
	service *ChatService
	logger  *logging.Logger
}

func NewHandler(service *ChatService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	resp, err := h.service.Chat(r.Context(), req)
	if errors.Is(err, ErrPromptRequired) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Prompt is required"})
		return
	}
	if err != nil {
		h.logger.Error("chatbot request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to generate chatbot response",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

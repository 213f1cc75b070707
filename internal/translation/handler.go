package translation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

// Handler serves POST /live-translate.
type Handler struct {
	translator  Translator
	transcriber Transcriber
	logger      *logging.Logger
}

func NewHandler(translator Translator, transcriber Transcriber, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{translator: translator, transcriber: transcriber, logger: logger}
}

// LiveTranslateRequest carries either text or an audio URL to transcribe first.
type LiveTranslateRequest struct {
	Text           string `json:"text"`
	AudioURL       string `json:"audioUrl"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type LiveTranslateResponse struct {
	Transcription  string `json:"transcription"`
	Translation    string `json:"translation"`
	TargetLanguage string `json:"targetLanguage"`
}

func (h *Handler) LiveTranslate(w http.ResponseWriter, r *http.Request) {
	var req LiveTranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	req.AudioURL = strings.TrimSpace(req.AudioURL)
	req.TargetLanguage = strings.TrimSpace(req.TargetLanguage)
	if (req.Text == "" && req.AudioURL == "") || req.TargetLanguage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Either text or audioUrl must be provided, along with targetLanguage",
		})
		return
	}
	source := strings.TrimSpace(req.SourceLanguage)
	if source == "" {
		source = "en"
	}

	text := req.Text
	if req.AudioURL != "" {
		transcribed, err := h.transcriber.Transcribe(r.Context(), req.AudioURL, source)
		if err != nil {
			h.fail(w, "transcribe", err)
			return
		}
		text = transcribed
	}

	translated, err := h.translator.Translate(r.Context(), text, source, req.TargetLanguage)
	if err != nil {
		h.fail(w, "translate", err)
		return
	}
	writeJSON(w, http.StatusOK, LiveTranslateResponse{
		Transcription:  text,
		Translation:    translated,
		TargetLanguage: req.TargetLanguage,
	})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("live translation failed", "op", op, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Failed to perform live translation",
		"details": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

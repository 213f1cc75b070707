package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

// Handler serves the /api/auth routes.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid request body"})
		return
	}
	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid request body"})
		return
	}
	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "No token, authorization denied"})
		return
	}
	user, err := h.service.Me(r.Context(), actor)
	if err != nil {
		h.writeError(w, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"msg": "User already exists"})
	case errors.Is(err, ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid credentials"})
	case errors.Is(err, ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User not found"})
	default:
		h.logger.Error("auth request failed", "op", op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "Server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

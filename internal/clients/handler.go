package clients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/realty-crm/internal/auth"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

// Handler handles HTTP requests for clients
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new clients handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the client endpoints. Callers attach actor authentication.
func (h *Handler) Routes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.With(adminOnly).Delete("/{id}", h.Delete)
	r.Post("/{id}/notes", h.AddNote)
	r.Post("/{id}/conversations", h.AddConversation)
}

// List handles GET /api/clients
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	out, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.writeError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/clients
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req CreateClientRequest
	if !decode(w, r, &req) {
		return
	}
	client, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, "create", err)
		return
	}
	h.logger.Info("client created", "client_id", client.ID, "actor_id", actor.ID)
	writeJSON(w, http.StatusCreated, client)
}

// Get handles GET /api/clients/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	client, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// Update handles PUT /api/clients/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req UpdateClientRequest
	if !decode(w, r, &req) {
		return
	}
	client, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// Delete handles DELETE /api/clients/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.writeError(w, "delete", err)
		return
	}
	h.logger.Info("client deleted", "client_id", id, "actor_id", actor.ID)
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Client removed"})
}

// AddNote handles POST /api/clients/{id}/notes
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req AddNoteRequest
	if !decode(w, r, &req) {
		return
	}
	client, err := h.service.AddNote(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, "add note", err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// AddConversation handles POST /api/clients/{id}/conversations
func (h *Handler) AddConversation(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req AddConversationRequest
	if !decode(w, r, &req) {
		return
	}
	client, err := h.service.AddConversation(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, "add conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "No token, authorization denied"})
	}
	return actor, ok
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
	case errors.Is(err, ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Not authorized to access this client"})
	case errors.Is(err, ErrClientNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Client not found"})
	case errors.Is(err, ErrRevisionConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"msg": "Client was modified concurrently, please retry"})
	default:
		h.logger.Error("client request failed", "op", op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "Server error"})
	}
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

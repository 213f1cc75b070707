package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc, nil)

	body := `{"name":"Ravi","email":"ravi@example.com","password":"secret1"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var session Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.NotEmpty(t, session.Token)
	assert.NotContains(t, rec.Body.String(), "PasswordHash")

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"ravi@example.com","password":"nope-nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"msg":"Invalid credentials"}`, rec.Body.String())
}

func TestHandlerRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"email":"x@example.com","password":"secret1"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"msg":"name is required"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerMe(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc, nil)
	session, err := svc.Register(t.Context(), RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(WithActor(req.Context(), Actor{ID: session.User.ID, Role: RoleAgent}))
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var user User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "a@example.com", user.Email)
}

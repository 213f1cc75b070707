package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/realty-crm/internal/auth"
)

// TokenVerifier resolves an actor from a bearer token.
type TokenVerifier interface {
	Verify(token string) (auth.Actor, error)
}

// Actor authenticates requests carrying an actor token in the x-auth-token
// header or an Authorization bearer header.
func Actor(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			actor, err := verifier.Verify(token)
			if err != nil {
				writeMsg(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin rejects actors without the admin role. Must run after Actor.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		if !actor.IsAdmin() {
			writeMsg(w, http.StatusForbidden, "Not authorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get("x-auth-token")); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}

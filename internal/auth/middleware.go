package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "residencehub/internal/errors"
)

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

func deny(w http.ResponseWriter, e *apperrors.HTTPError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}

// Authenticate resolves the bearer JWT into an Actor on the request context.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				deny(w, apperrors.Unauthorized("Missing bearer token"))
				return
			}
			actor, err := ParseToken(secret, token)
			if err != nil {
				deny(w, apperrors.Unauthorized("Invalid token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			deny(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		if !actor.IsAdmin() {
			deny(w, apperrors.Forbidden("Admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CronAuth accepts requests whose bearer token matches the bcrypt hash of
// the scheduler secret. An empty hash disables the endpoints.
func CronAuth(secretHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if secretHash == "" || !ok {
				deny(w, apperrors.Unauthorized("Unauthorized"))
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(token)); err != nil {
				deny(w, apperrors.Unauthorized("Unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

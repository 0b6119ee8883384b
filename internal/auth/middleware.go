package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	msgNotConfigured = "Failed to get auth token from env"
	msgInvalidToken  = "Incorrect authorization token"
)

type errorResponse struct {
	Message string `json:"message"`
}

// Middleware rejects requests whose bearer token is not accepted by a.
// A missing secret is a server error, a missing or wrong token is 401.
func Middleware(a Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := a.Authorize(r.Context(), BearerToken(r))
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, ErrNotConfigured):
				log.Error().
					Err(err).
					Str("path", r.URL.Path).
					Msg("rejecting request, auth token missing")
				writeError(w, http.StatusInternalServerError, msgNotConfigured)
			default:
				log.Warn().
					Err(err).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Msg("rejected authorization token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="cdn"`)
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
			}
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Message: message}); err != nil {
		log.Error().
			Err(err).
			Msg("failed to encode error response")
	}
}

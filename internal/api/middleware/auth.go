package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/brandpulse-ai/brandpulse/internal/api"
	"github.com/brandpulse-ai/brandpulse/internal/domain"
)

type contextKey string

// APIKeyAuth validates the Authorization bearer token against the
// configured key set. Comparison is constant-time per key.
func APIKeyAuth(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if !keyMatches(keys, token) {
				api.Error(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func keyMatches(keys []string, token string) bool {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			return true
		}
	}
	return false
}

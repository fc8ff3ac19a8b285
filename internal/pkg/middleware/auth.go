package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "github.com/shopsearch/shop-search/internal/pkg/errors"
)

// APIKeyAuth returns middleware that requires a matching API key on every
// request except the health endpoint. The key is accepted via the
// Authorization bearer header or the X-API-Key header.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				auth := r.Header.Get("Authorization")
				provided = strings.TrimPrefix(auth, "Bearer ")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				apperrors.WriteError(w, apperrors.UnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package httpadapter

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

// bearerAuthMiddleware requires "Authorization: Bearer <token>" when a token
// is configured. An empty token leaves the API open.
func bearerAuthMiddleware(next http.Handler, token string) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthorizedBearerHeader(r.Header.Get("Authorization"), token) {
			writeError(w, r, domain.WrapError(domain.ErrUnauthorized, "authorize request", errors.New("missing or invalid bearer token")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAuthorizedBearerHeader(headerValue, expectedToken string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || expectedToken == "" {
		return false
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	return subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
}

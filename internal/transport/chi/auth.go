package chi

import (
	"net/http"
	"strings"
)

// AdminAuthMiddleware returns a middleware that validates the shared admin
// secret. The token travels either in X-Admin-Token or as a Bearer token in
// the Authorization header.
func AdminAuthMiddleware(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("X-Admin-Token"))

			if token == "" {
				auth := strings.TrimSpace(r.Header.Get("Authorization"))
				const bearerPrefix = "bearer "
				if len(auth) > len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
					token = strings.TrimSpace(auth[len(bearerPrefix):])
				}
			}

			if adminToken == "" || token == "" || token != adminToken {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// Middleware returns HTTP middleware that enforces bearer-token
// authentication on every request it wraps.
//
// Behaviour:
//   - The expected token comes from configuration; requests must carry
//     "Authorization: Bearer <token>" with a matching value.
//   - A missing, malformed, or incorrect credential terminates the request
//     with 401 before the wrapped handler runs. The rejection carries
//     Cache-Control: no-store so no intermediary caches it.
//   - An empty configured token rejects everything. Auth is never
//     "disabled by omission" — an unconfigured gate fails closed.
//
// The comparison is constant-time.
func Middleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied, ok := bearerToken(r)
			if !ok || token == "" {
				reject(w)
				return
			}
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
				reject(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the bearer credential from r, reporting whether the
// Authorization header was present and well-formed.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", false
	}
	tok := h[len(bearerPrefix):]
	if tok == "" {
		return "", false
	}
	return tok, true
}

func reject(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"}) //nolint:errcheck
}

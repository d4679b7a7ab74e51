package middleware

import "net/http"

// MaxBodyBytes caps request body size. Oversized bodies fail on read with
// http.MaxBytesError, which handlers report as a validation error.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

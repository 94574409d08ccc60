package middleware

import (
	"net/http"
)

// DefaultMaxBodySize is used when no positive limit is configured.
const DefaultMaxBodySize int64 = 1 << 20 // 1MB

// RequestSize limits the size of incoming request bodies.
//
// Requests that declare a Content-Length above the limit are rejected with 413
// before the handler runs. Otherwise the body is wrapped with
// http.MaxBytesReader, and handlers map the resulting *http.MaxBytesError to
// 413 themselves.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout attaches a deadline to every request context. Store calls
// observe it and fail with context.DeadlineExceeded, which the handlers report
// as 504. A non-positive timeout disables the deadline.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

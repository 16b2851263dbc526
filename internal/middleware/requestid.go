package middleware

import (
	"net/http"

	"github.com/pysugar/api-tracker/internal/logging"
)

// RequestID puts the inbound X-Request-ID (or a fresh one) into the request
// context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(logging.HeaderRequestID); id != "" {
			ctx = logging.WithRequestID(ctx, id)
		}
		ctx, id := logging.EnsureRequestID(ctx)
		w.Header().Set(logging.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

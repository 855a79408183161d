package middleware

import (
	"log/slog"
	"net/http"

	"github.com/skybook/airline/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, subject_id, trace_id and span_id when those are known.
// Handlers fetch it with logger.FromContext.
//
// Mount it after RequestLogging and Tracing. Mounted after the auth filter
// it also carries the authenticated subject.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

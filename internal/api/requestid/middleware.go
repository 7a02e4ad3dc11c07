// Package requestid tags every request with a correlation id. Incoming
// X-Request-Id values from the reverse proxy are trusted and propagated.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const Header = "X-Request-Id"

type ctxKey struct{}

// Middleware assigns a request id, echoes it on the response and attaches a
// request-scoped logger field.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)

		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		logger := log.With().Str("requestId", id).Logger()
		ctx = logger.WithContext(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the request id, or empty when the middleware did not run.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

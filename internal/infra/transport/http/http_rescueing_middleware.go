package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/mediagate/internal/infra/logging"
)

// RescueingMiddleware creates middleware that recovers from panics in HTTP handlers.
// It logs the panic and stack trace, then returns a 500 Internal Server Error to the client.
// http.ErrAbortHandler is re-raised so the server aborts the response silently.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			p := recover()
			if p == nil {
				return
			}

			if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(p)
			}

			log.ErrorContext(ctx, "request panic", logging.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			), logging.Group("error",
				"panic", p,
				"stack", string(debug.Stack()),
			))

			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware wraps an http.Handler with additional functionality.
// Middlewares can be composed using the Chain function.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middlewares into a single middleware.
// The first middleware is the outermost wrapper (executed first on request).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// BuildMiddlewareChain composes the server-wide chain: Recover -> Trace.
// CORS is applied per route group since the relay owns its headers.
func BuildMiddlewareChain() Middleware {
	return Chain(
		middleware.Recoverer,
		Trace(),
	)
}

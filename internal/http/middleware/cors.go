package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"

	"github.com/davidbz/claimrelay/internal/config"
)

// exposedHeaders lets browser callers of the draft API correlate a response
// with server logs.
var exposedHeaders = []string{"X-Request-Id", "X-Trace-Id"}

// CORS applies the draft API's cross-origin policy. The relay endpoint sets
// its own fixed headers and is not wrapped by this middleware.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	// Browsers reject credentialed responses for a wildcard origin.
	credentials := cfg.AllowCredentials && !slices.Contains(cfg.AllowedOrigins, "*")

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: credentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}

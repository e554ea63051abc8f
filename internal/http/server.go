package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidbz/claimrelay/internal/config"
	"github.com/davidbz/claimrelay/internal/http/middleware"
	"github.com/davidbz/claimrelay/internal/observability"
	"github.com/davidbz/claimrelay/internal/relay"
	"github.com/davidbz/claimrelay/internal/upstream/echo"
)

// Server represents the HTTP server.
type Server struct {
	config      config.ServerConfig
	cors        *config.CORSConfig
	handler     *Handler
	relay       *relay.Handler
	echo        *echo.Handler
	middlewares middleware.Middleware
	srv         *http.Server
}

// NewServer creates a new HTTP server. echoHandler may be nil.
func NewServer(
	cfg *config.Config,
	handler *Handler,
	relayHandler *relay.Handler,
	echoHandler *echo.Handler,
	middlewares middleware.Middleware,
) *Server {
	return &Server{
		config:      cfg.Server,
		cors:        &cfg.CORS,
		handler:     handler,
		relay:       relayHandler,
		echo:        echoHandler,
		middlewares: middlewares,
		srv:         nil,
	}
}

// Router builds the route tree with the middleware chain applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middlewares)

	r.Get("/health", s.handler.HandleHealth)

	r.Route("/v1", func(api chi.Router) {
		api.Use(middleware.CORS(s.cors))
		api.Post("/drafts", s.handler.HandleDraft)
		api.Post("/drafts/stream", s.handler.HandleDraftStream)
		api.Get("/submissions", s.handler.HandleListSubmissions)
		api.Get("/submissions/{id}", s.handler.HandleGetSubmission)
	})

	if s.echo != nil {
		r.Handle("/echo/chat/completions", s.echo)
	}

	// Unknown paths go to the relay, which answers OPTIONS and 405 itself.
	// A wrong method on a known route gets a plain 405 and never reaches
	// the upstream.
	r.Handle("/", s.relay)
	r.NotFound(s.relay.ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
	}

	ctx := context.Background()
	observability.FromContext(ctx).Info("starting HTTP server", observability.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if s.srv == nil {
		return nil
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

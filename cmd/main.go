package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/claimrelay/internal/config"
	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/http"
	"github.com/davidbz/claimrelay/internal/http/middleware"
	"github.com/davidbz/claimrelay/internal/observability"
	"github.com/davidbz/claimrelay/internal/prompt"
	"github.com/davidbz/claimrelay/internal/provider/openai"
	"github.com/davidbz/claimrelay/internal/relay"
	"github.com/davidbz/claimrelay/internal/store"
	"github.com/davidbz/claimrelay/internal/upstream/echo"
)

func main() {
	container := buildContainer()

	// Observability first so every constructor below logs through it.
	if err := container.Invoke(func(_ *zap.Logger, _ *sdktrace.TracerProvider) {}); err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}

	err := container.Invoke(func(
		server *http.Server,
		serverCfg *config.ServerConfig,
		submissions domain.SubmissionStore,
		logger *zap.Logger,
		tracerProvider *sdktrace.TracerProvider,
	) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(serverCfg.ShutdownTimeout)*time.Second)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		if submissions != nil {
			shutdownErr = errors.Join(shutdownErr, submissions.Close())
		}
		shutdownErr = errors.Join(shutdownErr, tracerProvider.Shutdown(shutdownCtx))
		_ = logger.Sync()

		return shutdownErr
	})
	if err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(observability.InitTracing); err != nil {
		log.Fatalf("Failed to provide tracer provider: %v", err)
	}
	if err := container.Provide(func() domain.EventPublisher {
		return observability.NewEventBus()
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Upstream SDK provider. Without a key the draft API reports a
	// configuration error instead of failing startup.
	if err := container.Provide(func(cfg *openai.Config) (*openai.Provider, error) {
		if cfg.APIKey == "" {
			observability.FromContext(context.Background()).Warn("upstream API key not set, draft API disabled")
			return nil, nil
		}
		return openai.NewProvider(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide upstream provider: %v", err)
	}
	if err := container.Provide(func(p *openai.Provider) (domain.Completer, domain.StreamSource) {
		if p == nil {
			return nil, nil
		}
		return p, p
	}); err != nil {
		log.Fatalf("Failed to provide upstream interfaces: %v", err)
	}

	// Prompt builder
	if err := container.Provide(func(cfg *prompt.Config) (domain.PayloadBuilder, error) {
		return prompt.NewBuilder(cfg)
	}); err != nil {
		log.Fatalf("Failed to provide prompt builder: %v", err)
	}

	// Submission store
	if err := container.Provide(func(cfg *store.Config) (domain.SubmissionStore, error) {
		return store.New(context.Background(), cfg)
	}); err != nil {
		log.Fatalf("Failed to provide submission store: %v", err)
	}

	// Domain Services
	if err := container.Provide(func(cfg *config.RetryConfig) domain.RetryPolicy {
		return cfg.Policy()
	}); err != nil {
		log.Fatalf("Failed to provide retry policy: %v", err)
	}
	if err := container.Provide(domain.NewDraftService); err != nil {
		log.Fatalf("Failed to provide draft service: %v", err)
	}

	// Relay and local echo upstream
	if err := container.Provide(func(cfg *relay.Config) *relay.Handler {
		return relay.NewHandler(cfg, nil)
	}); err != nil {
		log.Fatalf("Failed to provide relay: %v", err)
	}
	if err := container.Provide(func(cfg *echo.Config) *echo.Handler {
		if !cfg.Enabled {
			return nil
		}
		return echo.NewHandler(cfg)
	}); err != nil {
		log.Fatalf("Failed to provide echo upstream: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

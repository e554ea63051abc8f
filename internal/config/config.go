package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/claimrelay/internal/client"
	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
	"github.com/davidbz/claimrelay/internal/prompt"
	"github.com/davidbz/claimrelay/internal/provider/openai"
	"github.com/davidbz/claimrelay/internal/relay"
	"github.com/davidbz/claimrelay/internal/store"
	"github.com/davidbz/claimrelay/internal/upstream/echo"
)

// Config represents the relay server and client configuration.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Log     observability.LogConfig
	Tracing observability.TracingConfig
	Relay   relay.Config
	OpenAI  openai.Config
	Client  client.Config
	Prompt  prompt.Config
	Retry   RetryConfig
	Store   store.Config
	Echo    echo.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int `env:"SERVER_PORT"             envDefault:"8080"`
	ReadTimeout     int `env:"SERVER_READ_TIMEOUT"     envDefault:"30"`
	WriteTimeout    int `env:"SERVER_WRITE_TIMEOUT"    envDefault:"120"`
	ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
}

// CORSConfig contains the CORS policy for the /v1 API. The relay endpoint
// sets its own fixed headers.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RetryConfig controls how draft generation retries the upstream.
type RetryConfig struct {
	MaxRetries int           `env:"MAX_RETRIES"      envDefault:"3"`
	BaseDelay  time.Duration `env:"RETRY_BASE_DELAY" envDefault:"5s"`
}

// Policy converts the settings into a domain retry policy.
func (c *RetryConfig) Policy() domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.BaseDelay,
	}
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server  *ServerConfig
	CORS    *CORSConfig
	Log     *observability.LogConfig
	Tracing *observability.TracingConfig
	Relay   *relay.Config
	OpenAI  *openai.Config
	Client  *client.Config
	Prompt  *prompt.Config
	Retry   *RetryConfig
	Store   *store.Config
	Echo    *echo.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:  &cfg.Server,
		CORS:    &cfg.CORS,
		Log:     &cfg.Log,
		Tracing: &cfg.Tracing,
		Relay:   &cfg.Relay,
		OpenAI:  &cfg.OpenAI,
		Client:  &cfg.Client,
		Prompt:  &cfg.Prompt,
		Retry:   &cfg.Retry,
		Store:   &cfg.Store,
		Echo:    &cfg.Echo,
	}
}

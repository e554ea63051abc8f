package relay

import "time"

// Config contains relay settings. APIKey never leaves the server.
type Config struct {
	APIKey       string        `env:"UPSTREAM_API_KEY"`
	BaseURL      string        `env:"UPSTREAM_BASE_URL"    envDefault:"https://api.deepseek.com/v1"`
	Timeout      time.Duration `env:"RELAY_TIMEOUT"        envDefault:"0s"`
	MaxBodyBytes int64         `env:"RELAY_MAX_BODY_BYTES" envDefault:"1048576"`
}

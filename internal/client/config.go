package client

import "time"

// Config contains streaming client settings.
type Config struct {
	RelayURL     string        `env:"RELAY_URL"            envDefault:"http://localhost:8080/"`
	Timeout      time.Duration `env:"CLIENT_TIMEOUT"       envDefault:"0s"`
	StreamBuffer int           `env:"CLIENT_STREAM_BUFFER" envDefault:"16"`
}

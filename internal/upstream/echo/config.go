package echo

import "time"

// Config controls the local echo upstream.
type Config struct {
	Enabled    bool          `env:"ECHO_UPSTREAM_ENABLED" envDefault:"false"`
	ChunkDelay time.Duration `env:"ECHO_CHUNK_DELAY"      envDefault:"10ms"`
}

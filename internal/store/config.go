package store

import "time"

// Driver values for STORE_DRIVER.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config selects and configures the submission store.
type Config struct {
	Driver        string        `env:"STORE_DRIVER"   envDefault:"none"`
	DSN           string        `env:"STORE_DSN"`
	RedisAddr     string        `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"       envDefault:"0"`
	TTL           time.Duration `env:"STORE_TTL"      envDefault:"0s"`
}

// Package store persists generated drafts. The backend is picked at startup
// from STORE_DRIVER.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
)

// New opens the configured store. It returns a nil store for DriverNone.
func New(ctx context.Context, cfg *Config) (domain.SubmissionStore, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	logger := observability.FromContext(ctx)

	switch driver {
	case "", DriverNone:
		logger.Info("submission store disabled")
		return nil, nil
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, &domain.ConfigurationError{Setting: "STORE_DSN"}
		}
		logger.Info("opening sqlite submission store", observability.String("path", cfg.DSN))
		s, err := NewSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, &domain.ConfigurationError{Setting: "STORE_DSN"}
		}
		logger.Info("opening postgres submission store")
		s, err := NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverRedis:
		logger.Info("opening redis submission store", observability.String("addr", cfg.RedisAddr))
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedis(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

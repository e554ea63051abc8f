package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/claimrelay/internal/config"
	"github.com/davidbz/claimrelay/internal/store"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)
		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 120, cfg.Server.WriteTimeout)
		require.Equal(t, "https://api.deepseek.com/v1", cfg.Relay.BaseURL)
		require.Equal(t, int64(1<<20), cfg.Relay.MaxBodyBytes)
		require.Empty(t, cfg.Relay.APIKey)
		require.Equal(t, 16, cfg.Client.StreamBuffer)
		require.Equal(t, "deepseek-chat", cfg.Prompt.Model)
		require.InDelta(t, 0.3, cfg.Prompt.Temperature, 0.0001)
		require.Equal(t, 2000, cfg.Prompt.MaxTokens)
		require.InDelta(t, 0.9, cfg.Prompt.TopP, 0.0001)
		require.Equal(t, store.DriverNone, cfg.Store.Driver)
		require.False(t, cfg.Echo.Enabled)
		require.Equal(t, "info", cfg.Log.Level)

		policy := cfg.Retry.Policy()
		require.Equal(t, 3, policy.MaxRetries)
		require.Equal(t, 5*time.Second, policy.BaseDelay)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("UPSTREAM_API_KEY", "sk-test-key")
		t.Setenv("UPSTREAM_BASE_URL", "https://upstream.test/v1")
		t.Setenv("RELAY_URL", "http://relay.test/")
		t.Setenv("CLIENT_STREAM_BUFFER", "4")
		t.Setenv("MAX_RETRIES", "5")
		t.Setenv("RETRY_BASE_DELAY", "250ms")
		t.Setenv("STORE_DRIVER", "sqlite")
		t.Setenv("STORE_DSN", "/tmp/claims.db")
		t.Setenv("ECHO_UPSTREAM_ENABLED", "true")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")

		cfg := config.Load()

		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, "sk-test-key", cfg.Relay.APIKey)
		require.Equal(t, "sk-test-key", cfg.OpenAI.APIKey)
		require.Equal(t, "https://upstream.test/v1", cfg.Relay.BaseURL)
		require.Equal(t, "https://upstream.test/v1", cfg.OpenAI.BaseURL)
		require.Equal(t, "http://relay.test/", cfg.Client.RelayURL)
		require.Equal(t, 4, cfg.Client.StreamBuffer)
		require.Equal(t, 5, cfg.Retry.MaxRetries)
		require.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
		require.Equal(t, "sqlite", cfg.Store.Driver)
		require.Equal(t, "/tmp/claims.db", cfg.Store.DSN)
		require.True(t, cfg.Echo.Enabled)
		require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("should expose sub-configs for injection", func(t *testing.T) {
		os.Clearenv()
		cfg := config.Load()

		deps := config.ParseDependenciesConfig(cfg)

		require.Same(t, &cfg.Relay, deps.Relay)
		require.Same(t, &cfg.Retry, deps.Retry)
		require.Same(t, &cfg.Store, deps.Store)
	})
}

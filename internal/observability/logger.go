package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	maxLoggerFieldCapacity int = 5 // Maximum number of context fields to add to logger
)

// Global logger instance - shared across the application.
// Loggers are not stored in context; only the fields are.
//
//nolint:gochecknoglobals // Singleton logger is a standard pattern
var (
	globalLogger *zap.Logger
	loggerMu     sync.RWMutex
)

// LogConfig controls the base logger.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL"       envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// InitLogger initializes the base logger (called once at startup).
func InitLogger(cfg *LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg != nil && cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg != nil && cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetLogger(logger)

	return logger, nil
}

// SetLogger replaces the base logger. Tests use it with zap.NewNop or an observer core.
func SetLogger(logger *zap.Logger) {
	loggerMu.Lock()
	globalLogger = logger
	loggerMu.Unlock()
}

// getBaseLogger returns the global logger instance.
func getBaseLogger() *zap.Logger {
	loggerMu.RLock()
	logger := globalLogger
	loggerMu.RUnlock()

	if logger == nil {
		// Fallback to production logger if not initialized
		logger, _ = zap.NewProduction()
	}

	return logger
}

// FromContext returns the base logger annotated with the request-scoped
// values stored in ctx. Empty values are omitted.
func FromContext(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, maxLoggerFieldCapacity)
	for _, key := range []contextKey{traceIDKey, spanIDKey, requestIDKey, modelKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if attempt := GetAttempt(ctx); attempt > 0 {
		fields = append(fields, zap.Int(string(attemptKey), attempt))
	}

	return getBaseLogger().With(fields...)
}

// Field helpers so callers do not import zap directly.

// String constructs a string field.
func String(key, val string) zap.Field { return zap.String(key, val) }

// Int constructs an int field.
func Int(key string, val int) zap.Field { return zap.Int(key, val) }

// Bool constructs a bool field.
func Bool(key string, val bool) zap.Field { return zap.Bool(key, val) }

// Float64 constructs a float64 field.
func Float64(key string, val float64) zap.Field { return zap.Float64(key, val) }

// Duration constructs a duration field.
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }

// Error constructs an error field.
func Error(err error) zap.Field { return zap.Error(err) }

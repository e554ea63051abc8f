package observability

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// EventBus implements the domain EventPublisher by writing each event as a
// structured log line on the context logger.
type EventBus struct {
	enabled bool
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		enabled: true,
	}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if e == nil || !e.enabled {
		return
	}

	// Stable field order keeps log lines diffable.
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, data[k]))
	}

	FromContext(ctx).Info(eventType, fields...)
}

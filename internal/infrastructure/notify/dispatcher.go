// Package notify is the fire-and-forget notification collaborator.
// Dispatch runs after the core transition commits and never rolls it
// back; delivery retries belong to the external dispatcher.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Event describes a state change worth telling a party about.
type Event struct {
	Type       string
	EntityType string
	EntityID   string
	Recipient  string
	Message    string
}

// Dispatcher delivers events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// LogDispatcher logs events instead of delivering them; the real
// delivery channel is an external collaborator.
type LogDispatcher struct {
	logger zerolog.Logger
}

func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.With().Str("service", "notify").Logger()}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, ev Event) {
	go func() {
		d.logger.Info().
			Str("type", ev.Type).
			Str("entityType", ev.EntityType).
			Str("entityId", ev.EntityID).
			Str("recipient", ev.Recipient).
			Msg(ev.Message)
	}()
}

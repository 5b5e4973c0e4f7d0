// Package events publishes domain events to in-process subscribers or NATS.
package events

import (
	"context"
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
)

// Event is a domain event
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	RequestID  string      `json:"request_id,omitempty"`
	Data       interface{} `json:"data"`
}

// NewEvent builds an event of eventType, taking the request ID from ctx
func NewEvent(ctx context.Context, eventType string, data interface{}) Event {
	return Event{
		ID:         core.GenerateRequestID(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		RequestID:  core.GetRequestID(ctx),
		Data:       data,
	}
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Package bus provides the telemetry event bus.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations. Telemetry is
// fire-and-forget: publishing never blocks the search path on subscribers.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type, equal to the topic it is published on.
	Type string `json:"type"`

	// Source is the service that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created, in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// SessionID links events belonging to one conversation session.
	SessionID string `json:"session_id,omitempty"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// Telemetry topics.
const (
	// TopicSearchCompleted carries one event per finished pipeline run.
	TopicSearchCompleted = "search.completed"

	// TopicSearchFailed carries runs that ended in a fallback response.
	TopicSearchFailed = "search.failed"

	// TopicFeedbackReceived carries user feedback submissions.
	TopicFeedbackReceived = "feedback.received"
)

// NewEvent creates an event with a fresh ID and the current timestamp.
func NewEvent(eventType, source, sessionID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Payload:   payload,
	}
}

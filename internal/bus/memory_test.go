package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

func TestMemoryBusPublishSubscribe(t *testing.T) {
	b := NewMemoryBus(testLogger())
	defer b.Close()
	ctx := context.Background()

	var mu sync.Mutex
	var received []Event
	done := make(chan struct{})

	err := b.Subscribe(ctx, TopicSearchCompleted, func(ctx context.Context, event Event) error {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := NewEvent(TopicSearchCompleted, "test", "s1", map[string]any{"results": 3})
	if err := b.Publish(ctx, TopicSearchCompleted, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	<-done
	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("received %d events, want 1", len(received))
	}
	if received[0].ID != event.ID || received[0].SessionID != "s1" {
		t.Errorf("received %+v", received[0])
	}
}

func TestMemoryBusNoSubscribers(t *testing.T) {
	b := NewMemoryBus(testLogger())
	defer b.Close()

	event := NewEvent(TopicSearchFailed, "test", "s1", nil)
	if err := b.Publish(context.Background(), TopicSearchFailed, event); err != nil {
		t.Errorf("publishing without subscribers should succeed: %v", err)
	}
}

func TestMemoryBusTopicIsolation(t *testing.T) {
	b := NewMemoryBus(testLogger())
	defer b.Close()
	ctx := context.Background()

	wrongTopic := make(chan struct{}, 1)
	b.Subscribe(ctx, TopicFeedbackReceived, func(ctx context.Context, event Event) error {
		wrongTopic <- struct{}{}
		return nil
	})

	done := make(chan struct{})
	b.Subscribe(ctx, TopicSearchCompleted, func(ctx context.Context, event Event) error {
		close(done)
		return nil
	})

	b.Publish(ctx, TopicSearchCompleted, NewEvent(TopicSearchCompleted, "test", "s1", nil))
	<-done

	select {
	case <-wrongTopic:
		t.Error("handler on another topic received the event")
	default:
	}
}

func TestMemoryBusClosedRejects(t *testing.T) {
	b := NewMemoryBus(testLogger())
	b.Close()
	ctx := context.Background()

	if err := b.Publish(ctx, TopicSearchCompleted, Event{}); err == nil {
		t.Error("publish on closed bus should fail")
	}
	if err := b.Subscribe(ctx, TopicSearchCompleted, nil); err == nil {
		t.Error("subscribe on closed bus should fail")
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(TopicSearchCompleted, "shop-search", "s1", "payload")
	if e.ID == "" {
		t.Error("event ID missing")
	}
	if e.Type != TopicSearchCompleted {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Timestamp == 0 {
		t.Error("timestamp missing")
	}

	other := NewEvent(TopicSearchCompleted, "shop-search", "s1", "payload")
	if other.ID == e.ID {
		t.Error("event IDs should be unique")
	}
}

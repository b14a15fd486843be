package mqtt

import (
	"encoding/json"
	"testing"
	"time"
)

func TestListener_SubscribeAndDispatch(t *testing.T) {
	listener := NewListener(NewTopics("home/"), nil)

	ch, cancel := listener.Subscribe()
	defer cancel()

	if listener.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", listener.SubscriberCount())
	}

	if err := listener.handleMessage("home/light/kitchen", []byte(`{"on":true}`)); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	select {
	case event := <-ch:
		if event.Topic != "home/light/kitchen" {
			t.Errorf("event topic = %q, want home/light/kitchen", event.Topic)
		}
		if string(event.Payload) != `{"on":true}` {
			t.Errorf("event payload = %s, want {\"on\":true}", event.Payload)
		}
		if event.ReceivedAt.IsZero() {
			t.Error("event timestamp should be set")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestListener_NonJSONPayloadWrapped(t *testing.T) {
	listener := NewListener(NewTopics("home/"), nil)

	ch, cancel := listener.Subscribe()
	defer cancel()

	if err := listener.handleMessage("home/sensor/raw", []byte("23.5C")); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	event := <-ch

	var decoded string
	if err := json.Unmarshal(event.Payload, &decoded); err != nil {
		t.Fatalf("non-JSON payload should be wrapped as a JSON string: %v", err)
	}
	if decoded != "23.5C" {
		t.Errorf("decoded payload = %q, want %q", decoded, "23.5C")
	}
}

func TestListener_CancelRemovesSubscriber(t *testing.T) {
	listener := NewListener(NewTopics("home/"), nil)

	ch, cancel := listener.Subscribe()
	cancel()

	if listener.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() after cancel = %d, want 0", listener.SubscriberCount())
	}

	// Channel is closed after cancel
	if _, open := <-ch; open {
		t.Error("channel should be closed after cancel")
	}

	// Second cancel is a no-op
	cancel()
}

func TestListener_SlowSubscriberDropsEvents(t *testing.T) {
	listener := NewListener(NewTopics("home/"), nil)

	ch, cancel := listener.Subscribe()
	defer cancel()

	// Fill the buffer and then some; dispatch must never block
	for i := 0; i < eventBuffer+10; i++ {
		listener.dispatch(Event{Topic: "home/flood"})
	}

	if len(ch) != eventBuffer {
		t.Errorf("buffered events = %d, want %d", len(ch), eventBuffer)
	}
}

func TestListener_MultipleSubscribers(t *testing.T) {
	listener := NewListener(NewTopics("home/"), nil)

	ch1, cancel1 := listener.Subscribe()
	ch2, cancel2 := listener.Subscribe()
	defer cancel1()
	defer cancel2()

	listener.dispatch(Event{Topic: "home/light/kitchen"})

	if len(ch1) != 1 || len(ch2) != 1 {
		t.Errorf("each subscriber should receive the event, got %d and %d", len(ch1), len(ch2))
	}
}

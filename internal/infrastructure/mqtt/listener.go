package mqtt

import (
	"encoding/json"
	"sync"
	"time"
)

// eventBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events rather than blocking the
// broker handler.
const eventBuffer = 64

// Event is one observed broker message under the home topic prefix.
type Event struct {
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Listener subscribes to the home topic prefix and fans incoming
// messages out to in-process subscribers. Each message is also logged at
// debug level, which is the whole of the hub's MQTT processing today —
// the stream exists for dashboards watching over WebSocket.
type Listener struct {
	topics Topics
	logger Logger

	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewListener creates a listener for the given topic set.
func NewListener(topics Topics, logger Logger) *Listener {
	return &Listener{
		topics: topics,
		logger: logger,
		subs:   make(map[chan Event]struct{}),
	}
}

// Start subscribes the listener to all home traffic on the client.
func (l *Listener) Start(client *Client, qos byte) error {
	return client.Subscribe(l.topics.All(), qos, l.handleMessage)
}

// handleMessage is the broker-side entry point. Payloads that are not
// valid JSON are wrapped as JSON strings so Event always marshals.
func (l *Listener) handleMessage(topic string, payload []byte) error {
	raw := json.RawMessage(payload)
	if !json.Valid(payload) {
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return err
		}
		raw = quoted
	}

	l.dispatch(Event{
		Topic:      topic,
		Payload:    raw,
		ReceivedAt: time.Now().UTC(),
	})
	return nil
}

// dispatch delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (l *Listener) dispatch(event Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for ch := range l.subs {
		select {
		case ch <- event:
		default:
			if l.logger != nil {
				l.logger.Warn("dropping event for slow subscriber", "topic", event.Topic)
			}
		}
	}
}

// Subscribe registers an event channel. The returned cancel function
// removes the subscription and closes the channel; it is safe to call
// more than once.
func (l *Listener) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, ch)
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of active in-process subscribers.
func (l *Listener) SubscriberCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

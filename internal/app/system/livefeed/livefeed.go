// Package livefeed fans record changes out to live subscribers.
//
// Each topic delivers events to each subscriber in publish order. A
// subscriber that falls more than its buffer behind is marked degraded and
// closed rather than blocking publishers; the client re-fetches the list
// and subscribes again.
package livefeed

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 32

// Change kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Event is one change on a topic.
type Event struct {
	Topic string    `json:"topic"`
	Kind  string    `json:"kind"`
	ID    string    `json:"id"`
	Data  any       `json:"data,omitempty"`
	At    time.Time `json:"at"`
	// Audience limits delivery to one identity id; empty means everyone.
	Audience string `json:"-"`
}

// Hub routes events to subscriptions by topic.
type Hub struct {
	log *zap.Logger

	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}
	closed bool
}

// NewHub returns an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{log: logger, topics: make(map[string]map[*Subscription]struct{})}
}

// Subscription receives events for one topic.
type Subscription struct {
	hub      *Hub
	topic    string
	audience string
	ch       chan Event
	done     chan struct{}

	mu       sync.Mutex
	closed   bool
	degraded bool
}

// Subscribe registers for topic. audience, when non-empty, filters out
// events addressed to other identities. buffer <= 0 uses DefaultBuffer.
func (h *Hub) Subscribe(topic, audience string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{
		hub:      h,
		topic:    topic,
		audience: audience,
		ch:       make(chan Event, buffer),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.shut(false)
		return s
	}
	subs := h.topics[topic]
	if subs == nil {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[s] = struct{}{}
	return s
}

// Publish delivers ev to every subscriber of ev.Topic without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.topics[ev.Topic] {
		if ev.Audience != "" && s.audience != "" && ev.Audience != s.audience {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			h.log.Warn("live subscriber fell behind; closing",
				zap.String("topic", ev.Topic),
				zap.Int("buffer", cap(s.ch)))
			delete(h.topics[ev.Topic], s)
			s.shut(true)
		}
	}
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// Close ends every subscription. Later subscriptions are born closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for topic, subs := range h.topics {
		for s := range subs {
			s.shut(false)
		}
		delete(h.topics, topic)
	}
}

// C returns the event channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Event { return s.ch }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Degraded reports whether the subscription was closed for falling behind.
func (s *Subscription) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if subs := s.hub.topics[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.hub.topics, s.topic)
		}
	}
	s.shut(false)
}

// shut closes the channels once. Callers hold hub.mu.
func (s *Subscription) shut(degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.degraded = degraded
	close(s.ch)
	close(s.done)
}

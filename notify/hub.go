// Package notify is an in-process publish/subscribe hub keyed by topic.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultBuffer is the channel size of a subscription
const DefaultBuffer = 32

// Message is one payload published on a topic
type Message struct {
	Topic   string
	Payload any
}

type subscription struct {
	ch     chan Message
	closed bool
}

// Hub fans published messages out to topic subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int]*subscription
	nextID int
	closed bool
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[int]*subscription),
		logger: logger.Named("notify"),
	}
}

// Publish delivers payload to every subscriber of topic
func (h *Hub) Publish(topic string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	msg := Message{Topic: topic, Payload: payload}
	for id, sub := range h.subs[topic] {
		select {
		case sub.ch <- msg:
		default:
			h.logger.Debug("subscriber buffer full, dropping message",
				zap.String("topic", topic),
				zap.Int("subscriber", id))
		}
	}
}

// Subscribe registers a subscriber on topic. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe(topic string, buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscription{ch: make(chan Message, buffer)}
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := h.nextID
	h.nextID++
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]*subscription)
	}
	h.subs[topic][id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { h.unsubscribe(topic, id) })
	}
}

func (h *Hub) unsubscribe(topic string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[topic][id]
	if !ok {
		return
	}
	delete(h.subs[topic], id)
	if len(h.subs[topic]) == 0 {
		delete(h.subs, topic)
	}
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// Subscribers returns the number of subscribers on topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Close closes every subscription; later publishes are dropped
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.subs {
		for _, sub := range subs {
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
		}
	}
	h.subs = make(map[string]map[int]*subscription)
}

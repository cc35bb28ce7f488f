// Package realtime fans subscription payloads out to websocket
// connections, either inside the process or across instances via redis.
package realtime

import (
	"context"
	"sync"
)

const defaultBuffer = 32

// Hub is the in-process broker. Slow subscribers miss payloads rather
// than block the publisher.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[chan []byte]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{topics: map[string]map[chan []byte]struct{}{}, buffer: defaultBuffer}
}

// Subscribe returns a channel closed once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	ch := make(chan []byte, h.buffer)
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = map[chan []byte]struct{}{}
	}
	h.topics[topic][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.unsubscribe(topic, ch)
	}()
	return ch, nil
}

func (h *Hub) unsubscribe(topic string, ch chan []byte) {
	h.mu.Lock()
	subs := h.topics[topic]
	_, exists := subs[ch]
	if exists {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
	if exists {
		close(ch)
	}
}

func (h *Hub) Publish(_ context.Context, topic string, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.topics[topic] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribers reports how many channels listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

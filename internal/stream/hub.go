// Package stream fans sampled update fragments out to every connected
// dashboard tab. One Hub owns the subscriber set; each subscriber owns one
// bounded queue. A slow subscriber loses messages, never stalls the producer.
package stream

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sysboard/sysboard/internal/logger"
)

// SubscriberState tracks the connection lifecycle.
type SubscriberState string

const (
	StateConnecting     SubscriberState = "connecting"
	StateActive         SubscriberState = "active"
	StateClosedByClient SubscriberState = "closed_by_client"
	StateClosedByError  SubscriberState = "closed_by_error"
	StateClosedByServer SubscriberState = "closed_by_server"
)

// Subscriber is one registered connection. Messages are read from C; the
// channel is closed when the subscriber is unregistered.
type Subscriber struct {
	id    uuid.UUID
	queue chan Message

	mu    sync.Mutex
	state SubscriberState
}

func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// C is the subscriber's message stream. It closes on unregister.
func (s *Subscriber) C() <-chan Message {
	return s.queue
}

func (s *Subscriber) State() SubscriberState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Subscriber) setState(state SubscriberState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
}

// Hub is the broadcast registry.
type Hub struct {
	queueSize int

	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscriber
}

func NewHub(queueSize int) *Hub {
	return &Hub{
		queueSize:   queueSize,
		subscribers: make(map[uuid.UUID]*Subscriber),
	}
}

// Register creates a subscriber with a fresh queue and adds it to the live
// set. The returned handle identifies the subscriber for Unregister.
func (h *Hub) Register() *Subscriber {
	sub := &Subscriber{
		id:    uuid.New(),
		queue: make(chan Message, h.queueSize),
		state: StateConnecting,
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	sub.state = StateActive
	h.mu.Unlock()

	logger.Debug().Str("subscriber", sub.id.String()).Msg("subscriber registered")

	return sub
}

// Unregister removes the subscriber and closes its queue. Idempotent: every
// teardown path may call it, only the first call has any effect.
func (h *Hub) Unregister(sub *Subscriber, state SubscriberState) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, live := h.subscribers[sub.id]
	if live {
		delete(h.subscribers, sub.id)
		sub.setState(state)
		close(sub.queue)
	}
	h.mu.Unlock()

	if live {
		logger.Debug().
			Str("subscriber", sub.id.String()).
			Str("state", string(state)).
			Msg("subscriber unregistered")
	}
}

// Broadcast enqueues msg to every active subscriber without ever blocking.
// A subscriber whose queue is full misses this message.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for _, sub := range h.subscribers {
		select {
		case sub.queue <- msg:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		logger.Debug().
			Int("dropped", dropped).
			Str("type", string(msg.Type)).
			Msg("slow subscribers skipped")
	}
}

// Len reports the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Shutdown broadcasts the shutdown sentinel, waits out the grace period so
// connection tasks can drain it, then force-unregisters whatever remains.
func (h *Hub) Shutdown(grace time.Duration) {
	h.Broadcast(Message{Type: MessageShutdown})

	if grace > 0 {
		time.Sleep(grace)
	}

	h.mu.Lock()
	remaining := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		remaining = append(remaining, sub)
	}
	h.mu.Unlock()

	for _, sub := range remaining {
		h.Unregister(sub, StateClosedByServer)
	}
}

package transport

import (
	"context"
	"sync"

	"github.com/CodeForBreakfast/eventsourcing-go/internal/queue"
)

// Hub fans inbound messages out to any number of subscribers, each backed
// by its own unbounded queue. Publication order is preserved per producer
// because delivery to all subscriber queues happens under one lock.
// Transport implementations use a Hub to satisfy the Subscribe contract.
//
// The hub buffers from the moment it is created: messages published while
// no subscriber is attached are held back and handed to the next subscriber.
// A connection's inbound stream therefore starts at wiring time, not at the
// first Subscribe call.
type Hub struct {
	mu      sync.Mutex
	subs    map[*queue.Queue[Message]]MessageFilter
	backlog []Message
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*queue.Queue[Message]]MessageFilter)}
}

// Publish offers the message to every current subscriber queue. With no
// subscribers attached the message joins the backlog instead.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if len(h.subs) == 0 {
		h.backlog = append(h.backlog, msg)
		return
	}
	for q, filter := range h.subs {
		if filter == nil || filter(msg) {
			q.Push(msg)
		}
	}
}

// Subscribe registers a new fan-out queue. The returned channel yields any
// backlog held for this connection followed by every matching message
// published after this call, and is closed when ctx ends or the hub closes.
func (h *Hub) Subscribe(ctx context.Context, filter MessageFilter) (<-chan Message, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}

	q := queue.New[Message]()
	for _, msg := range h.backlog {
		if filter == nil || filter(msg) {
			q.Push(msg)
		}
	}
	h.backlog = nil
	h.subs[q] = filter
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(q)
	}()

	return q.Out(), nil
}

func (h *Hub) remove(q *queue.Queue[Message]) {
	h.mu.Lock()
	delete(h.subs, q)
	h.mu.Unlock()
	q.Close()
}

// Close releases every subscriber queue. Subsequent publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = nil
	h.backlog = nil
	h.mu.Unlock()

	for q := range subs {
		q.Close()
	}
}

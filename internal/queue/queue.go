// Package queue provides an unbounded FIFO with a channel consumer side.
//
// The protocol and the in-memory transport both need queues whose producers
// never block on slow consumers: subscription event queues, inbound command
// queues, and fan-out subscriber queues.
package queue

import (
	"sync"
)

// Queue is an unbounded FIFO. Push never blocks; a pump goroutine feeds Out
// in insertion order. Closing the queue closes Out and discards anything
// still buffered.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T

	wake      chan struct{}
	done      chan struct{}
	out       chan T
	closeOnce sync.Once
}

// New creates a queue and starts its pump.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan T),
	}
	go q.pump()
	return q
}

// Push appends an item. Safe to call after Close; the item is dropped.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Out returns the consumer channel. It is closed by Close.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Close terminates the pump and closes the consumer channel.
// Safe to call multiple times.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

func (q *Queue[T]) pump() {
	defer close(q.out)

	for {
		q.mu.Lock()
		for len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()

			select {
			case q.out <- item:
			case <-q.done:
				return
			}

			q.mu.Lock()
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.done:
			return
		}
	}
}

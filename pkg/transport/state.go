package transport

import (
	"context"
	"sync"
)

// stateBuffer sizes each subscriber channel. A connection goes through at
// most three states, so transitions never overflow the buffer.
const stateBuffer = 4

// StateSignal is a connection-state cell with pub/sub semantics: each
// subscriber receives the current state immediately, then every transition.
// Transport implementations embed one to satisfy the States contract.
type StateSignal struct {
	mu      sync.Mutex
	current ConnectionState
	subs    map[chan ConnectionState]struct{}
	done    chan struct{}
}

// NewStateSignal creates a signal holding the initial state.
func NewStateSignal(initial ConnectionState) *StateSignal {
	return &StateSignal{
		current: initial,
		subs:    make(map[chan ConnectionState]struct{}),
		done:    make(chan struct{}),
	}
}

// Current returns the current state.
func (s *StateSignal) Current() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set transitions to state and notifies all subscribers. Setting the
// current state again is a no-op.
func (s *StateSignal) Set(state ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == state {
		return
	}
	s.current = state
	for ch := range s.subs {
		ch <- state
	}
}

// Subscribe returns a channel carrying the current state followed by all
// transitions. Closed when ctx ends or the signal's owner shuts down.
func (s *StateSignal) Subscribe(ctx context.Context) (<-chan ConnectionState, error) {
	s.mu.Lock()
	ch := make(chan ConnectionState, stateBuffer)
	ch <- s.current
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Shutdown closes all subscriber channels after any final transition has
// been delivered.
func (s *StateSignal) Shutdown() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
}

package protocol

import (
	"sync"

	"github.com/CodeForBreakfast/eventsourcing-go/internal/queue"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/stream"
)

// Subscription is a client-side event stream for one stream ID.
//
// Events are buffered in an unbounded queue, so a slow consumer never blocks
// the protocol reader. Closing the subscription removes it from the client's
// table and ends the Events channel; events already queued but not yet
// consumed are discarded.
type Subscription struct {
	streamID string
	events   *queue.Queue[stream.Event]
	client   *Client

	closeOnce sync.Once
	closed    chan struct{}
}

func newSubscription(c *Client, streamID string) *Subscription {
	return &Subscription{
		streamID: streamID,
		events:   queue.New[stream.Event](),
		client:   c,
		closed:   make(chan struct{}),
	}
}

// StreamID returns the subscribed stream.
func (s *Subscription) StreamID() string {
	return s.streamID
}

// Events returns the channel of delivered events, in server publication
// order. The channel is closed when the subscription is closed.
func (s *Subscription) Events() <-chan stream.Event {
	return s.events.Out()
}

// Close releases the subscription. After Close no further events are
// enqueued; re-subscribing to the same stream yields a fresh sequence.
// Safe to call multiple times.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.client.removeSubscription(s)
		s.events.Close()
		close(s.closed)
	})
}

// deliver enqueues an event. Called only by the client's reader.
func (s *Subscription) deliver(ev stream.Event) {
	s.events.Push(ev)
}

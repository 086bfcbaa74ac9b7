package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/command"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/wire"
)

// DefaultCommandTimeout is how long SendCommand waits for a correlated
// command_result before failing.
const DefaultCommandTimeout = 10 * time.Second

// Client errors.
var (
	ErrClientClosed          = errors.New("client protocol closed")
	ErrDuplicateCommand      = errors.New("command ID already pending")
	ErrDuplicateSubscription = errors.New("stream already has an active subscription")
)

// CommandTimeoutError indicates no result arrived for a command within the
// configured deadline. No authoritative result exists; retrying is the
// caller's decision.
type CommandTimeoutError struct {
	CommandID string
	TimeoutMs int64
}

func (e *CommandTimeoutError) Error() string {
	return fmt.Sprintf("command %s timed out after %dms", e.CommandID, e.TimeoutMs)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCommandTimeout overrides DefaultCommandTimeout.
func WithCommandTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithClientLogger sets the protocol logger.
func WithClientLogger(logger log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// Client is the client side of the event-sourcing protocol, bound to a
// single client transport.
//
// One long-lived reader drains the transport's inbound stream and completes
// pending commands or enqueues subscription events. Malformed inbound
// messages are logged and dropped; the reader never terminates on them.
type Client struct {
	transport transport.Client
	timeout   time.Duration
	logger    log.Logger
	connID    string

	pendingMu sync.Mutex
	pending   map[string]chan command.Result

	subsMu sync.Mutex
	subs   map[string]*Subscription

	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
}

// NewClient attaches a protocol client to the transport and starts its
// reader. The reader stops when ctx is cancelled or the client is closed.
func NewClient(ctx context.Context, t transport.Client, opts ...ClientOption) (*Client, error) {
	c := &Client{
		transport: t,
		timeout:   DefaultCommandTimeout,
		logger:    log.NoopLogger{},
		connID:    uuid.NewString(),
		pending:   make(map[string]chan command.Result),
		subs:      make(map[string]*Subscription),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	readCtx, cancel := context.WithCancel(ctx)
	msgs, err := t.Subscribe(readCtx, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to attach protocol reader: %w", err)
	}
	c.cancel = cancel

	go c.readLoop(msgs)
	return c, nil
}

// Close stops the reader, releases all subscriptions, and disconnects the
// underlying transport. Outstanding SendCommand calls terminate through
// their timeout; their results are never delivered.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.cancel()

	c.subsMu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.subsMu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}

	err := c.transport.Close()
	<-c.done
	return err
}

// SendCommand publishes the wire command and awaits its correlated result.
//
// The result is delivered at most once. On deadline the call fails with
// *CommandTimeoutError and a late result for the same command ID is
// discarded. A second concurrent call with an already-pending ID is
// rejected with ErrDuplicateCommand.
func (c *Client) SendCommand(ctx context.Context, cmd *wire.Command) (command.Result, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	slot := make(chan command.Result, 1)

	c.pendingMu.Lock()
	if _, exists := c.pending[cmd.ID]; exists {
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.ID)
	}
	c.pending[cmd.ID] = slot
	c.pendingMu.Unlock()

	data, err := wire.EncodeCommand(cmd)
	if err != nil {
		c.removePending(cmd.ID)
		return nil, err
	}

	if err := c.transport.Publish(transport.Message{
		ID:      cmd.ID,
		Type:    wire.TypeCommand,
		Payload: data,
	}); err != nil {
		c.removePending(cmd.ID)
		return nil, fmt.Errorf("failed to publish command: %w", err)
	}

	c.logMessage(log.DirectionOut, &log.MessageEvent{
		Type:        wire.TypeCommand,
		CommandID:   cmd.ID,
		CommandName: cmd.Name,
	})

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.removePending(cmd.ID)
		return nil, ctx.Err()
	case <-timer.C:
		c.removePending(cmd.ID)
		return nil, &CommandTimeoutError{CommandID: cmd.ID, TimeoutMs: c.timeout.Milliseconds()}
	case res := <-slot:
		return res, nil
	}
}

// Subscribe declares interest in one stream's events and publishes the
// subscribe message. Events arrive on the returned Subscription until the
// consumer closes it or ctx ends. A second concurrent subscription to the
// same stream from this client is rejected.
func (c *Client) Subscribe(ctx context.Context, streamID string) (*Subscription, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if streamID == "" {
		return nil, wire.ErrEmptyStreamID
	}

	sub := newSubscription(c, streamID)

	c.subsMu.Lock()
	if _, exists := c.subs[streamID]; exists {
		c.subsMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSubscription, streamID)
	}
	c.subs[streamID] = sub
	c.subsMu.Unlock()

	data, err := wire.EncodeSubscribe(&wire.Subscribe{StreamID: streamID})
	if err != nil {
		sub.Close()
		return nil, err
	}

	if err := c.transport.Publish(transport.Message{
		ID:      uuid.NewString(),
		Type:    wire.TypeSubscribe,
		Payload: data,
	}); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to publish subscribe: %w", err)
	}

	c.logMessage(log.DirectionOut, &log.MessageEvent{
		Type:     wire.TypeSubscribe,
		StreamID: streamID,
	})

	// Release the subscription when the consumer's scope ends.
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.closed:
		}
	}()

	return sub, nil
}

// removePending drops a pending entry, if still present.
func (c *Client) removePending(commandID string) {
	c.pendingMu.Lock()
	delete(c.pending, commandID)
	c.pendingMu.Unlock()
}

// removeSubscription drops the table entry if it still belongs to sub.
// A newer subscription to the same stream is left untouched.
func (c *Client) removeSubscription(sub *Subscription) {
	c.subsMu.Lock()
	if current, ok := c.subs[sub.streamID]; ok && current == sub {
		delete(c.subs, sub.streamID)
	}
	c.subsMu.Unlock()
}

// readLoop is the single long-lived reader for this protocol instance.
func (c *Client) readLoop(msgs <-chan transport.Message) {
	defer close(c.done)

	for msg := range msgs {
		c.handleMessage(msg)
	}
}

// handleMessage decodes and dispatches one inbound transport message.
// Anything malformed is logged and dropped.
func (c *Client) handleMessage(msg transport.Message) {
	decoded, err := wire.DecodeServerMessage(msg.Payload)
	if err != nil {
		c.logError("decode_failed", err)
		return
	}

	switch m := decoded.(type) {
	case *wire.CommandResult:
		c.handleResult(m)
	case *wire.Event:
		c.handleEvent(m)
	}
}

// handleResult completes the pending slot for the result's command ID.
// Results for unknown IDs (already completed, timed out, or another
// client's) are discarded.
func (c *Client) handleResult(res *wire.CommandResult) {
	c.pendingMu.Lock()
	slot, ok := c.pending[res.CommandID]
	if ok {
		delete(c.pending, res.CommandID)
	}
	c.pendingMu.Unlock()

	success := res.Success
	c.logMessage(log.DirectionIn, &log.MessageEvent{
		Type:      wire.TypeCommandResult,
		CommandID: res.CommandID,
		Success:   &success,
	})

	if !ok {
		return
	}

	var result command.Result
	if res.Success {
		result = command.Success{Position: *res.Position}
	} else {
		// The error string is opaque to the client; it is carried as-is.
		result = command.Failure{Err: &command.UnknownError{
			CommandID: res.CommandID,
			Message:   res.Error,
		}}
	}

	// The slot is buffered and the pending entry is already removed, so
	// this cannot block and cannot complete twice.
	slot <- result
}

// handleEvent routes the event to the stream's subscription, if any.
func (c *Client) handleEvent(ev *wire.Event) {
	c.logMessage(log.DirectionIn, &log.MessageEvent{
		Type:      wire.TypeEvent,
		StreamID:  ev.StreamID,
		EventType: ev.EventType,
	})

	c.subsMu.Lock()
	sub, ok := c.subs[ev.StreamID]
	c.subsMu.Unlock()

	if !ok {
		return
	}
	sub.deliver(ev.StreamEvent())
}

func (c *Client) logMessage(dir log.Direction, msg *log.MessageEvent) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleClient,
		Message:      msg,
	})
}

func (c *Client) logError(code string, err error) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		LocalRole:    log.RoleClient,
		Error:        &log.ErrorEventData{Code: code, Message: err.Error()},
	})
}

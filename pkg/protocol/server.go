package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/CodeForBreakfast/eventsourcing-go/internal/queue"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/command"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/stream"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/wire"
)

// Server errors.
var (
	ErrServerClosed = errors.New("server protocol closed")
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the protocol logger.
func WithServerLogger(logger log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// Server is the server side of the event-sourcing protocol, bound to a
// single server transport.
//
// A supervisor accepts client connections and forks one reader per
// connection. Inbound command messages are funneled into a single unbounded
// queue exposed by Commands; subscribe messages update the per-stream
// subscription table. Disconnecting a client purges its subscriptions.
type Server struct {
	transport transport.Server
	logger    log.Logger
	serverID  string

	inbound *queue.Queue[*wire.Command]

	mu      sync.Mutex
	subs    map[string]map[string]struct{} // streamID -> clientIDs
	streams map[string]map[string]struct{} // clientID -> streamIDs (for purge)

	cancel context.CancelFunc
	closed atomic.Bool
}

// NewServer attaches a protocol server to the transport and starts its
// connection supervisor. The supervisor stops when ctx is cancelled or the
// server is closed.
func NewServer(ctx context.Context, t transport.Server, opts ...ServerOption) (*Server, error) {
	s := &Server{
		transport: t,
		logger:    log.NoopLogger{},
		serverID:  uuid.NewString(),
		inbound:   queue.New[*wire.Command](),
		subs:      make(map[string]map[string]struct{}),
		streams:   make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	superCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.supervise(superCtx)
	return s, nil
}

// Close stops the supervisor and ends the Commands stream. The underlying
// transport is left to its owner.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()
	s.inbound.Close()
	return nil
}

// Commands returns the stream of inbound wire commands from all connected
// clients. The consumer drives dispatch and calls SendResult with the
// outcome. The channel is closed by Close.
func (s *Server) Commands() <-chan *wire.Command {
	return s.inbound.Out()
}

// SendResult encodes the command outcome and broadcasts it.
//
// Broadcast rather than unicast is deliberate: clients discard results for
// command IDs they do not have pending, so every client but the originator
// ignores the message.
func (s *Server) SendResult(commandID string, res command.Result) error {
	if s.closed.Load() {
		return ErrServerClosed
	}

	wireRes := &wire.CommandResult{CommandID: commandID}
	switch r := res.(type) {
	case command.Success:
		wireRes.Success = true
		pos := r.Position
		wireRes.Position = &pos
	case command.Failure:
		wireRes.Error = command.EncodeError(r.Err)
	default:
		return fmt.Errorf("unsupported result type %T", res)
	}

	data, err := wire.EncodeCommandResult(wireRes)
	if err != nil {
		return err
	}

	success := wireRes.Success
	s.logMessage(log.DirectionOut, "", &log.MessageEvent{
		Type:      wire.TypeCommandResult,
		CommandID: commandID,
		Success:   &success,
	})

	return s.transport.Broadcast(transport.Message{
		ID:      commandID,
		Type:    wire.TypeCommandResult,
		Payload: data,
	})
}

// PublishEvent broadcasts the event to subscribers of its stream. With no
// subscribers the event is not sent at all.
func (s *Server) PublishEvent(ev stream.Event) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	subscribers := len(s.subs[ev.Position.StreamID])
	s.mu.Unlock()
	if subscribers == 0 {
		return nil
	}

	data, err := wire.EncodeEvent(wire.FromStreamEvent(ev))
	if err != nil {
		return err
	}

	s.logMessage(log.DirectionOut, "", &log.MessageEvent{
		Type:      wire.TypeEvent,
		StreamID:  ev.Position.StreamID,
		EventType: ev.Type,
	})

	return s.transport.Broadcast(transport.Message{
		ID:      uuid.NewString(),
		Type:    wire.TypeEvent,
		Payload: data,
	})
}

// Subscribers returns how many clients are subscribed to the stream.
func (s *Server) Subscribers(streamID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[streamID])
}

// supervise accepts connections until the transport or the context ends.
func (s *Server) supervise(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case conn, ok := <-s.transport.Connections():
			if !ok {
				return
			}
			go s.serveConn(ctx, conn)
		}
	}
}

// serveConn is the per-connection reader. It runs until the client
// disconnects or the server stops, then purges the client's subscriptions.
func (s *Server) serveConn(ctx context.Context, conn transport.Connection) {
	clientID := conn.ClientID()

	s.logState(clientID, "ACCEPTED", "READY", "")

	msgs, err := conn.Transport().Subscribe(ctx, nil)
	if err != nil {
		s.logError(clientID, "subscribe_failed", err)
		return
	}

	for msg := range msgs {
		s.handleClientMessage(clientID, msg)
	}

	s.purgeClient(clientID)
	s.logState(clientID, "READY", "CLOSED", "disconnect")
}

// handleClientMessage decodes and routes one message from a client.
// Anything malformed is logged and dropped; the reader continues.
func (s *Server) handleClientMessage(clientID string, msg transport.Message) {
	decoded, err := wire.DecodeClientMessage(msg.Payload)
	if err != nil {
		s.logError(clientID, "decode_failed", err)
		return
	}

	switch m := decoded.(type) {
	case *wire.Command:
		s.logMessage(log.DirectionIn, clientID, &log.MessageEvent{
			Type:        wire.TypeCommand,
			CommandID:   m.ID,
			CommandName: m.Name,
		})
		s.inbound.Push(m)

	case *wire.Subscribe:
		s.logMessage(log.DirectionIn, clientID, &log.MessageEvent{
			Type:     wire.TypeSubscribe,
			StreamID: m.StreamID,
		})
		s.addSubscription(clientID, m.StreamID)
	}
}

// addSubscription records the client's interest in a stream.
func (s *Server) addSubscription(clientID, streamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[streamID] == nil {
		s.subs[streamID] = make(map[string]struct{})
	}
	s.subs[streamID][clientID] = struct{}{}

	if s.streams[clientID] == nil {
		s.streams[clientID] = make(map[string]struct{})
	}
	s.streams[clientID][streamID] = struct{}{}
}

// purgeClient removes the client from every stream's subscriber set.
func (s *Server) purgeClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for streamID := range s.streams[clientID] {
		delete(s.subs[streamID], clientID)
		if len(s.subs[streamID]) == 0 {
			delete(s.subs, streamID)
		}
	}
	delete(s.streams, clientID)
}

func (s *Server) logMessage(dir log.Direction, clientID string, msg *log.MessageEvent) {
	connID := clientID
	if connID == "" {
		connID = s.serverID
	}
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleServer,
		Message:      msg,
	})
}

func (s *Server) logState(clientID, oldState, newState, reason string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: clientID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryState,
		LocalRole:    log.RoleServer,
		StateChange:  &log.StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason},
	})
}

func (s *Server) logError(clientID, code string, err error) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: clientID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		LocalRole:    log.RoleServer,
		Error:        &log.ErrorEventData{Code: code, Message: err.Error()},
	})
}

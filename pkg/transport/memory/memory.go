package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/CodeForBreakfast/eventsourcing-go/internal/queue"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport"
)

// Server is the in-process reference implementation of transport.Server.
//
// Each connected client is a pair of endpoints wired back to back: what one
// side publishes, the other side's subscribers receive through a fan-out
// hub. All queues are unbounded, so Publish never blocks on a slow consumer.
type Server struct {
	mu     sync.Mutex
	conns  map[string]*endpoint // clientID -> client-side endpoint
	accept *queue.Queue[transport.Connection]
	closed bool
}

// NewServer creates a new in-memory transport server.
func NewServer() *Server {
	return &Server{
		conns:  make(map[string]*endpoint),
		accept: queue.New[transport.Connection](),
	}
}

// Connect wires a new client into the server and returns the client-side
// transport. The server side surfaces the connection on Connections().
func (s *Server) Connect() (transport.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, transport.ErrClosed
	}

	clientID := uuid.NewString()
	state := transport.NewStateSignal(transport.StateConnecting)

	clientEnd := &endpoint{id: clientID, state: state, inbound: transport.NewHub(), srv: s}
	serverEnd := &endpoint{id: clientID, state: state, inbound: transport.NewHub(), srv: s}
	clientEnd.peer = serverEnd
	serverEnd.peer = clientEnd

	s.conns[clientID] = clientEnd

	// Both ends are wired; the connection is live.
	state.Set(transport.StateConnected)

	s.accept.Push(&conn{id: clientID, tr: serverEnd})
	return clientEnd, nil
}

// Connections implements transport.Server.
func (s *Server) Connections() <-chan transport.Connection {
	return s.accept.Out()
}

// Broadcast implements transport.Server. Disconnected clients are skipped.
func (s *Server) Broadcast(msg transport.Message) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return transport.ErrClosed
	}
	ends := make([]*endpoint, 0, len(s.conns))
	for _, clientEnd := range s.conns {
		ends = append(ends, clientEnd.peer)
	}
	s.mu.Unlock()

	for _, serverEnd := range ends {
		// Racing disconnects are fine; the message is simply lost.
		_ = serverEnd.Publish(msg)
	}
	return nil
}

// Close implements transport.Server: every client transitions to
// StateDisconnected and the connection stream ends.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*endpoint, 0, len(s.conns))
	for _, clientEnd := range s.conns {
		conns = append(conns, clientEnd)
	}
	s.mu.Unlock()

	for _, clientEnd := range conns {
		clientEnd.teardown()
	}
	s.accept.Close()
	return nil
}

// removeConn drops a single client from the connection table.
func (s *Server) removeConn(clientID string) {
	s.mu.Lock()
	delete(s.conns, clientID)
	s.mu.Unlock()
}

// conn is the server-side handle of one accepted client.
type conn struct {
	id string
	tr *endpoint
}

// ClientID implements transport.Connection.
func (c *conn) ClientID() string { return c.id }

// Transport implements transport.Connection.
func (c *conn) Transport() transport.Client { return c.tr }

// endpoint is one side of an in-memory connection. Publishing delivers to
// the peer's inbound hub; subscribing drains this side's own hub.
type endpoint struct {
	id      string
	state   *transport.StateSignal
	inbound *transport.Hub
	peer    *endpoint
	srv     *Server

	closeOnce sync.Once
}

// States implements transport.Client.
func (e *endpoint) States(ctx context.Context) (<-chan transport.ConnectionState, error) {
	return e.state.Subscribe(ctx)
}

// Publish implements transport.Client.
func (e *endpoint) Publish(msg transport.Message) error {
	if e.state.Current() != transport.StateConnected {
		return transport.ErrNotConnected
	}
	e.peer.inbound.Publish(msg)
	return nil
}

// Subscribe implements transport.Client.
func (e *endpoint) Subscribe(ctx context.Context, filter transport.MessageFilter) (<-chan transport.Message, error) {
	return e.inbound.Subscribe(ctx, filter)
}

// Close implements transport.Client. Closing either side disconnects both.
func (e *endpoint) Close() error {
	e.teardown()
	return nil
}

// teardown disconnects the connection: both hubs are released, the state
// signal delivers StateDisconnected and shuts down, and the server's
// connection table entry is removed.
func (e *endpoint) teardown() {
	e.closeOnce.Do(func() {
		e.srv.removeConn(e.id)
		e.state.Set(transport.StateDisconnected)
		e.inbound.Close()
		e.peer.inbound.Close()
		e.state.Shutdown()
	})
}

// Compile-time interface satisfaction checks.
var (
	_ transport.Server     = (*Server)(nil)
	_ transport.Client     = (*endpoint)(nil)
	_ transport.Connection = (*conn)(nil)
)

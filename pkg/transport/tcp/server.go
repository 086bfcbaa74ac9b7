package tcp

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/CodeForBreakfast/eventsourcing-go/internal/queue"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport"
)

// ServerConfig configures a TCP transport server.
type ServerConfig struct {
	// Address to listen on (e.g. ":7410" or "127.0.0.1:7410").
	Address string

	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config

	// MaxMessageSize is the maximum frame payload size (default: 64KB).
	MaxMessageSize uint32

	// Logger for transport logging (optional).
	Logger log.Logger
}

// Server accepts TCP connections and surfaces each as a
// transport.Connection.
type Server struct {
	config   ServerConfig
	listener net.Listener
	accept   *queue.Queue[transport.Connection]

	mu     sync.Mutex
	conns  map[string]*Conn
	closed bool

	wg sync.WaitGroup
}

// Listen binds the listener and starts the accept loop.
func Listen(config ServerConfig) (*Server, error) {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.Logger == nil {
		config.Logger = log.NoopLogger{}
	}

	var listener net.Listener
	var err error
	if config.TLSConfig != nil {
		listener, err = tls.Listen("tcp", config.Address, config.TLSConfig)
	} else {
		listener, err = net.Listen("tcp", config.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := &Server{
		config:   config,
		listener: listener,
		accept:   queue.New[transport.Connection](),
		conns:    make(map[string]*Conn),
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the listener's address, useful with ":0" test listeners.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Connections implements transport.Server.
func (s *Server) Connections() <-chan transport.Connection {
	return s.accept.Out()
}

// Broadcast implements transport.Server. Write failures on individual
// connections are skipped; the failing connection's reader will notice the
// broken socket and tear it down.
func (s *Server) Broadcast(msg transport.Message) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return transport.ErrClosed
	}
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Publish(msg)
	}
	return nil
}

// Close implements transport.Server: the listener stops, every connection
// disconnects, and the connection stream ends.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.listener.Close()
	for _, c := range conns {
		c.teardown()
	}
	s.wg.Wait()
	s.accept.Close()
	return nil
}

// acceptLoop admits sockets until the listener closes.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		sock, err := s.listener.Accept()
		if err != nil {
			return
		}

		clientID := uuid.NewString()
		conn := newConn(sock, clientID, s.config.MaxMessageSize, s.config.Logger, log.RoleServer, s.removeConn)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.teardown()
			continue
		}
		s.conns[clientID] = conn
		s.mu.Unlock()

		s.accept.Push(&serverConn{id: clientID, tr: conn})
	}
}

// removeConn drops a closed connection from the table.
func (s *Server) removeConn(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.connID)
	s.mu.Unlock()
}

// serverConn is the server-side handle of one accepted client.
type serverConn struct {
	id string
	tr *Conn
}

// ClientID implements transport.Connection.
func (c *serverConn) ClientID() string { return c.id }

// Transport implements transport.Connection.
func (c *serverConn) Transport() transport.Client { return c.tr }

// Compile-time interface satisfaction checks.
var (
	_ transport.Server     = (*Server)(nil)
	_ transport.Connection = (*serverConn)(nil)
)

package tcp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport"
)

// Conn adapts one TCP (or TLS) socket to the transport.Client contract.
// Both the client side and the server's per-connection handle use it.
//
// A reader goroutine decodes inbound frames into messages and fans them out
// through a hub; Publish frames and writes directly, serialized by the
// frame writer's own lock.
type Conn struct {
	sock    net.Conn
	writer  *FrameWriter
	state   *transport.StateSignal
	inbound *transport.Hub

	logger log.Logger
	connID string
	role   log.Role

	closeOnce sync.Once
	onClose   func(*Conn)
}

// newConn wraps an established socket and starts its reader. The socket is
// already connected, so the signal starts at StateConnected.
func newConn(sock net.Conn, connID string, maxSize uint32, logger log.Logger, role log.Role, onClose func(*Conn)) *Conn {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	c := &Conn{
		sock:    sock,
		writer:  NewFrameWriter(sock, maxSize),
		state:   transport.NewStateSignal(transport.StateConnected),
		inbound: transport.NewHub(),
		logger:  logger,
		connID:  connID,
		role:    role,
		onClose: onClose,
	}
	go c.readLoop(NewFrameReader(sock, maxSize))
	return c
}

// ConnID returns the connection's identifier.
func (c *Conn) ConnID() string { return c.connID }

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr { return c.sock.RemoteAddr() }

// States implements transport.Client.
func (c *Conn) States(ctx context.Context) (<-chan transport.ConnectionState, error) {
	return c.state.Subscribe(ctx)
}

// Publish implements transport.Client.
func (c *Conn) Publish(msg transport.Message) error {
	if c.state.Current() != transport.StateConnected {
		return transport.ErrNotConnected
	}

	data, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	if err := c.writer.WriteFrame(data); err != nil {
		return err
	}

	c.logMessage(log.DirectionOut, msg)
	return nil
}

// Subscribe implements transport.Client.
func (c *Conn) Subscribe(ctx context.Context, filter transport.MessageFilter) (<-chan transport.Message, error) {
	return c.inbound.Subscribe(ctx, filter)
}

// Close implements transport.Client.
func (c *Conn) Close() error {
	c.teardown()
	return nil
}

// readLoop decodes frames into messages until the socket fails or closes.
// A malformed frame payload is logged and skipped; a framing or socket
// error ends the connection.
func (c *Conn) readLoop(reader *FrameReader) {
	defer c.teardown()

	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			return
		}

		msg, err := decodeMessage(frame)
		if err != nil {
			c.logError("decode_failed", err)
			continue
		}

		c.logMessage(log.DirectionIn, msg)
		c.inbound.Publish(msg)
	}
}

// teardown closes the socket, delivers StateDisconnected, and releases all
// message subscribers.
func (c *Conn) teardown() {
	c.closeOnce.Do(func() {
		c.sock.Close()
		c.state.Set(transport.StateDisconnected)
		c.inbound.Close()
		c.state.Shutdown()
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

func (c *Conn) logMessage(dir log.Direction, msg transport.Message) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		LocalRole:    c.role,
		RemoteAddr:   c.sock.RemoteAddr().String(),
		Message:      &log.MessageEvent{Type: msg.Type},
	})
}

func (c *Conn) logError(code string, err error) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		LocalRole:    c.role,
		RemoteAddr:   c.sock.RemoteAddr().String(),
		Error:        &log.ErrorEventData{Code: code, Message: err.Error()},
	})
}

// Compile-time interface satisfaction check.
var _ transport.Client = (*Conn)(nil)

package transport

import (
	"context"
	"errors"
)

// Message is the opaque duplex-channel record exchanged by transports.
// Payload is JSON text; the transport never inspects it.
type Message struct {
	ID      string
	Type    string
	Payload []byte
}

// ConnectionState describes the client-side view of a connection.
type ConnectionState int

const (
	// StateConnecting indicates connection establishment in progress.
	StateConnecting ConnectionState = iota

	// StateConnected indicates an active connection.
	StateConnected

	// StateDisconnected indicates the connection is gone. Terminal.
	StateDisconnected
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Transport errors.
var (
	// ErrNotConnected indicates a publish on a transport that is not in
	// StateConnected.
	ErrNotConnected = errors.New("transport not connected")

	// ErrClosed indicates an operation on a closed transport.
	ErrClosed = errors.New("transport closed")
)

// MessageFilter selects which inbound messages a subscriber observes.
// A nil filter matches every message.
type MessageFilter func(Message) bool

// Client is the client side of a message-oriented duplex channel.
//
// Implementations must deliver messages published by a single producer to
// each subscriber in publication order. No order is guaranteed across
// producers.
type Client interface {
	// States returns a channel that yields the current connection state
	// immediately and every subsequent transition. The channel is closed
	// when ctx is cancelled or the transport is closed.
	States(ctx context.Context) (<-chan ConnectionState, error)

	// Publish delivers the message to the peer. It fails with
	// ErrNotConnected when the connection is not in StateConnected.
	Publish(msg Message) error

	// Subscribe returns a channel of inbound messages. The connection
	// buffers from the moment it is wired: messages that arrived before
	// the first Subscribe call are delivered to it first, so nothing sent
	// in the connect window is lost. When filter is non-nil only matching
	// messages appear. Multiple concurrent subscribers are permitted; each
	// observes every (matching) message from its own subscribe point on.
	// The channel is closed when ctx is cancelled or the connection
	// disconnects.
	Subscribe(ctx context.Context, filter MessageFilter) (<-chan Message, error)

	// Close tears the connection down and transitions it to
	// StateDisconnected.
	Close() error
}

// Connection is a client connection as seen by the server: an identifier
// plus a server-side transport view whose Publish sends to this client and
// whose Subscribe yields this client's messages.
type Connection interface {
	// ClientID returns the connection's unique identifier.
	ClientID() string

	// Transport returns the server-side view of the connection.
	Transport() Client
}

// Server is the server side of a transport: a stream of accepted client
// connections plus a broadcast primitive.
type Server interface {
	// Connections returns the stream of newly accepted connections. The
	// channel is closed when the server is closed. There is a single
	// stream per server; it is owned by one consumer.
	Connections() <-chan Connection

	// Broadcast delivers the message to every currently connected client.
	Broadcast(msg Message) error

	// Close disconnects all clients and stops accepting connections.
	Close() error
}

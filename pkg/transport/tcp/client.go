package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
)

// DefaultConnectTimeout bounds a single dial attempt when the caller's
// context carries no deadline.
const DefaultConnectTimeout = 30 * time.Second

// DialOption configures a dial.
type DialOption func(*dialConfig)

type dialConfig struct {
	tlsConf        *tls.Config
	maxMessageSize uint32
	connectTimeout time.Duration
	logger         log.Logger
}

// WithTLS enables TLS on the connection using the given config.
func WithTLS(conf *tls.Config) DialOption {
	return func(c *dialConfig) { c.tlsConf = conf }
}

// WithMaxMessageSize overrides DefaultMaxMessageSize for framing.
func WithMaxMessageSize(size uint32) DialOption {
	return func(c *dialConfig) { c.maxMessageSize = size }
}

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) DialOption {
	return func(c *dialConfig) { c.connectTimeout = d }
}

// WithDialLogger sets the transport logger for the connection.
func WithDialLogger(logger log.Logger) DialOption {
	return func(c *dialConfig) { c.logger = logger }
}

// Dial connects to a server and returns the client-side transport.
func Dial(ctx context.Context, address string, opts ...DialOption) (*Conn, error) {
	conf := dialConfig{
		maxMessageSize: DefaultMaxMessageSize,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(&conf)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, conf.connectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	sock, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if conf.tlsConf != nil {
		tlsSock := tls.Client(sock, conf.tlsConf)
		if err := tlsSock.HandshakeContext(ctx); err != nil {
			sock.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		sock = tlsSock
	}

	return newConn(sock, uuid.NewString(), conf.maxMessageSize, conf.logger, log.RoleClient, nil), nil
}

// DialRetry dials with exponential backoff until it connects or ctx ends.
func DialRetry(ctx context.Context, address string, opts ...DialOption) (*Conn, error) {
	backoff := NewBackoff()
	for {
		conn, err := Dial(ctx, address, opts...)
		if err == nil {
			return conn, nil
		}

		timer := time.NewTimer(backoff.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("dial %s: %w (last error: %v)", address, ctx.Err(), err)
		case <-timer.C:
		}
	}
}

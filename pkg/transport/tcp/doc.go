// Package tcp provides the TCP/TLS transport: length-prefixed JSON frames
// over a socket, surfaced through the transport.Client and transport.Server
// contracts.
//
// Server side:
//
//	srv, err := tcp.Listen(tcp.ServerConfig{Address: ":7410"})
//	for conn := range srv.Connections() {
//	    // conn.Transport() is the per-client transport.Client
//	}
//
// Client side:
//
//	conn, err := tcp.Dial(ctx, "localhost:7410")
//	conn, err := tcp.DialRetry(ctx, "localhost:7410") // exponential backoff
//
// Each frame is a 4-byte big-endian length followed by a JSON envelope
// {"id", "type", "payload"}; payloads are opaque here and owned by pkg/wire.
// Frames above the configured maximum (64 KB by default) are rejected.
package tcp

// Package memory provides the in-process reference transport.
//
// A Server hands out paired endpoints: the client side returned by Connect
// and a server-side view surfaced on Connections(). Messages cross between
// the two through per-subscriber unbounded queues, so publishing never
// blocks. Closing either side, or the whole server, transitions the
// connection state to DISCONNECTED and releases every subscriber queue.
//
// The package exists to back the protocol test suite, but it is a complete
// transport: it upholds the per-producer ordering and connection-state
// contracts any production transport must satisfy.
package memory

// Package transport defines the pluggable message-transport contract the
// event-sourcing protocol runs over.
//
// A transport is a duplex channel carrying opaque {id, type, payload}
// records. The client side exposes a connection-state signal, publish, and
// fan-out subscribe; the server side exposes a stream of accepted client
// connections and broadcast.
//
// Two implementations ship with this module:
//
//   - transport/memory: the in-process reference implementation used by the
//     test suite.
//   - transport/tcp: length-prefixed JSON frames over TCP, optionally TLS.
//
// Any replacement must uphold the ordering guarantee (per-producer
// publication order is preserved to every subscriber) and the
// connection-state contract (the current state is emitted on subscription,
// StateDisconnected is terminal, and Publish fails once disconnected).
package transport

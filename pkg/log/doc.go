// Package log provides structured protocol event logging.
//
// The protocol packages emit Event records through the Logger interface for
// every message sent or received, every connection state change, and every
// dropped malformed message. Applications choose the sink:
//
//   - FileLogger: CBOR-encoded append-only capture file
//   - SlogAdapter: console output through log/slog
//   - MultiLogger: fan-out to several sinks
//   - NoopLogger: logging disabled
//
// Captured files are read back with Reader, optionally filtered by
// connection, direction, command, or stream.
package log

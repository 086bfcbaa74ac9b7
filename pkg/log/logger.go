package log

// Logger consumes protocol events: decoded wire messages, connection state
// changes, and dropped-message errors. Both protocol halves take one at
// construction and default to NoopLogger.
type Logger interface {
	// Log records one event. Called from protocol reader goroutines, so
	// implementations must be safe for concurrent use and must not block
	// on slow sinks.
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use.
type NoopLogger struct{}

// Log implements Logger.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}

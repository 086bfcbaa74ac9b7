package wire

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/stream"
)

// Envelope type values carried in transport messages.
const (
	// TypeCommand is a client→server command submission.
	TypeCommand = "command"

	// TypeSubscribe is a client→server stream subscription request.
	TypeSubscribe = "subscribe"

	// TypeCommandResult is a server→client correlated command outcome.
	TypeCommandResult = "command_result"

	// TypeEvent is a server→client stream event delivery.
	TypeEvent = "event"
)

// Message errors.
var (
	ErrEmptyCommandID   = errors.New("command ID must not be empty")
	ErrEmptyCommandName = errors.New("command name must not be empty")
	ErrEmptyStreamID    = errors.New("stream ID must not be empty")
	ErrMissingPosition  = errors.New("success result requires a position")
	ErrMissingError     = errors.New("failure result requires an error")
	ErrUnknownType      = errors.New("unknown message type")
)

// TraceContext carries optional distributed-tracing identifiers through the
// wire envelope. The protocol propagates them untouched.
type TraceContext struct {
	TraceID  string `json:"traceId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// Command is the untrusted external command envelope.
//
// JSON encoding:
//
//	{
//	  "type": "command",
//	  "id": "<uuid>",
//	  "target": "<aggregate id>",
//	  "name": "<command name>",
//	  "payload": <any>,
//	  "context": { "traceId": "...", "parentId": "..." }   // optional
//	}
type Command struct {
	ID      string          `json:"id"`
	Target  string          `json:"target"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Context *TraceContext   `json:"context,omitempty"`
}

// Validate checks the command envelope invariants.
func (c *Command) Validate() error {
	if c.ID == "" {
		return ErrEmptyCommandID
	}
	if c.Name == "" {
		return ErrEmptyCommandName
	}
	return nil
}

// Subscribe is a client→server request for events of one stream.
//
// JSON encoding:
//
//	{ "type": "subscribe", "streamId": "<stream id>" }
type Subscribe struct {
	StreamID string `json:"streamId"`
}

// Validate checks the subscribe message invariants.
func (s *Subscribe) Validate() error {
	if s.StreamID == "" {
		return ErrEmptyStreamID
	}
	return nil
}

// CommandResult is the server→client outcome of a dispatched command.
//
// JSON encoding (success):
//
//	{ "type": "command_result", "commandId": "<uuid>", "success": true,
//	  "position": { "streamId": "...", "eventNumber": 42 } }
//
// JSON encoding (failure):
//
//	{ "type": "command_result", "commandId": "<uuid>", "success": false,
//	  "error": "<opaque string, typically JSON>" }
type CommandResult struct {
	CommandID string           `json:"commandId"`
	Success   bool             `json:"success"`
	Position  *stream.Position `json:"position,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Validate checks the result invariants: exactly the fields of the taken
// variant must be present.
func (r *CommandResult) Validate() error {
	if r.CommandID == "" {
		return ErrEmptyCommandID
	}
	if r.Success {
		if r.Position == nil {
			return ErrMissingPosition
		}
		return r.Position.Validate()
	}
	if r.Error == "" {
		return ErrMissingError
	}
	return nil
}

// Event is the server→client delivery of one stream event.
//
// JSON encoding:
//
//	{ "type": "event", "streamId": "...",
//	  "position": { "streamId": "...", "eventNumber": 1 },
//	  "eventType": "UserCreated", "data": <any>,
//	  "timestamp": "2024-01-01T10:00:00Z" }
type Event struct {
	StreamID  string          `json:"streamId"`
	Position  stream.Position `json:"position"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate checks the event message invariants.
func (e *Event) Validate() error {
	if e.StreamID == "" {
		return ErrEmptyStreamID
	}
	if e.EventType == "" {
		return stream.ErrEmptyType
	}
	return e.Position.Validate()
}

// StreamEvent converts the wire event to the in-process event type.
func (e *Event) StreamEvent() stream.Event {
	return stream.Event{
		Position:  e.Position,
		Type:      e.EventType,
		Data:      e.Data,
		Timestamp: e.Timestamp,
	}
}

// FromStreamEvent builds the wire form of an in-process event.
func FromStreamEvent(ev stream.Event) *Event {
	return &Event{
		StreamID:  ev.Position.StreamID,
		Position:  ev.Position,
		EventType: ev.Type,
		Data:      ev.Data,
		Timestamp: ev.Timestamp.UTC(),
	}
}

package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Stream errors.
var (
	ErrEmptyStreamID = errors.New("stream ID must not be empty")
	ErrEmptyType     = errors.New("event type must not be empty")
)

// Position identifies a single slot in an event stream.
//
// JSON encoding:
//
//	{ "streamId": "user-123", "eventNumber": 42 }
type Position struct {
	StreamID    string `json:"streamId"`
	EventNumber uint64 `json:"eventNumber"`
}

// NewPosition creates a validated stream position.
func NewPosition(streamID string, eventNumber uint64) (Position, error) {
	p := Position{StreamID: streamID, EventNumber: eventNumber}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// Validate checks the position invariants.
func (p Position) Validate() error {
	if p.StreamID == "" {
		return ErrEmptyStreamID
	}
	return nil
}

// String returns the position in "streamId@eventNumber" form.
func (p Position) String() string {
	return fmt.Sprintf("%s@%d", p.StreamID, p.EventNumber)
}

// Event is a single immutable occurrence in a stream.
type Event struct {
	// Position locates the event within its stream.
	Position Position

	// Type names the kind of event (e.g. "UserCreated").
	Type string

	// Data is the opaque event payload, carried as JSON.
	Data json.RawMessage

	// Timestamp is the UTC instant the event was recorded.
	Timestamp time.Time
}

// Validate checks the event invariants.
func (e Event) Validate() error {
	if err := e.Position.Validate(); err != nil {
		return err
	}
	if e.Type == "" {
		return ErrEmptyType
	}
	return nil
}

package commands

import (
	"encoding/json"
	"io"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
)

// jsonEvent is the JSONL export shape of one log event.
type jsonEvent struct {
	Timestamp    string                `json:"timestamp"`
	ConnectionID string                `json:"connectionId"`
	Direction    string                `json:"direction"`
	Layer        string                `json:"layer"`
	Category     string                `json:"category"`
	Role         string                `json:"role"`
	RemoteAddr   string                `json:"remoteAddr,omitempty"`
	Message      *log.MessageEvent     `json:"message,omitempty"`
	StateChange  *log.StateChangeEvent `json:"stateChange,omitempty"`
	Error        *log.ErrorEventData   `json:"error,omitempty"`
}

// Export writes every event of the log file as one JSON object per line.
func Export(w io.Writer, path string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		out := jsonEvent{
			Timestamp:    event.Timestamp.UTC().Format(time.RFC3339Nano),
			ConnectionID: event.ConnectionID,
			Direction:    event.Direction.String(),
			Layer:        event.Layer.String(),
			Category:     event.Category.String(),
			Role:         event.LocalRole.String(),
			RemoteAddr:   event.RemoteAddr,
			Message:      event.Message,
			StateChange:  event.StateChange,
			Error:        event.Error,
		}

		if err := encoder.Encode(out); err != nil {
			return err
		}
	}
}

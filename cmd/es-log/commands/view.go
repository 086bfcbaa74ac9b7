// Package commands implements the es-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
)

// BuildFilter parses the CLI filter flags into a log.Filter.
func BuildFilter(connID, layer, direction, commandID, streamID string) (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: connID,
		CommandID:    commandID,
		StreamID:     streamID,
	}

	switch strings.ToLower(layer) {
	case "":
	case "transport":
		l := log.LayerTransport
		filter.Layer = &l
	case "wire":
		l := log.LayerWire
		filter.Layer = &l
	case "protocol":
		l := log.LayerProtocol
		filter.Layer = &l
	default:
		return log.Filter{}, fmt.Errorf("unknown layer %q", layer)
	}

	switch strings.ToLower(direction) {
	case "":
	case "in":
		d := log.DirectionIn
		filter.Direction = &d
	case "out":
		d := log.DirectionOut
		filter.Direction = &d
	default:
		return log.Filter{}, fmt.Errorf("unknown direction %q", direction)
	}

	return filter, nil
}

// View prints the matching events of a log file in human-readable form.
func View(w io.Writer, path string, filter log.Filter) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		formatEvent(w, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.Message != nil:
		typeLabel = event.Message.Type
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, dir, event.Layer, typeLabel)

	switch {
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.CommandID != "" {
		fmt.Fprintf(w, "  CommandID: %s\n", msg.CommandID)
	}
	if msg.CommandName != "" {
		fmt.Fprintf(w, "  Command: %s\n", msg.CommandName)
	}
	if msg.StreamID != "" {
		fmt.Fprintf(w, "  Stream: %s\n", msg.StreamID)
	}
	if msg.EventType != "" {
		fmt.Fprintf(w, "  EventType: %s\n", msg.EventType)
	}
	if msg.Success != nil {
		fmt.Fprintf(w, "  Success: %t\n", *msg.Success)
	}
	if msg.ProcessingTime != nil {
		fmt.Fprintf(w, "  ProcessingTime: %s\n", msg.ProcessingTime)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Code: %s\n", e.Code)
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
}

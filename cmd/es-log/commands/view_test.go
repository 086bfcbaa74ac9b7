package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := t.TempDir() + "/test.eslog"

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, event := range events {
		logger.Log(event)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestFormatCommandEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:        "command",
			CommandID:   "cmd-42",
			CommandName: "CreateUser",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-01-28T10:15:32.123456Z") {
		t.Errorf("expected microsecond timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[conn:abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}
	if !strings.Contains(output, "OUT") {
		t.Errorf("expected OUT direction, got: %s", output)
	}
	if !strings.Contains(output, "CommandID: cmd-42") {
		t.Errorf("expected command ID, got: %s", output)
	}
	if !strings.Contains(output, "Command: CreateUser") {
		t.Errorf("expected command name, got: %s", output)
	}
}

func TestFormatCommandResultEvent(t *testing.T) {
	success := true
	event := log.Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "abc12345",
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:      "command_result",
			CommandID: "cmd-42",
			Success:   &success,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "command_result") {
		t.Errorf("expected message type, got: %s", output)
	}
	if !strings.Contains(output, "Success: true") {
		t.Errorf("expected success flag, got: %s", output)
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "abc12345",
		Direction:    log.DirectionIn,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryState,
		StateChange:  &log.StateChangeEvent{OldState: "ACCEPTED", NewState: "READY"},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "ACCEPTED -> READY") {
		t.Errorf("expected state transition, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "abc12345",
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		Error:        &log.ErrorEventData{Code: "decode_failed", Message: "unexpected end of JSON input"},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Code: decode_failed") {
		t.Errorf("expected error code, got: %s", output)
	}
	if !strings.Contains(output, "Message: unexpected end of JSON input") {
		t.Errorf("expected error message, got: %s", output)
	}
}

func TestViewAppliesFilter(t *testing.T) {
	ts := time.Now().UTC()
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-a", Layer: log.LayerWire, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: "command", CommandID: "cmd-1"}},
		{Timestamp: ts, ConnectionID: "conn-b", Layer: log.LayerWire, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: "command", CommandID: "cmd-2"}},
	}
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := View(&buf, path, log.Filter{ConnectionID: "conn-b"}); err != nil {
		t.Fatalf("View failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "cmd-1") {
		t.Errorf("filter leaked conn-a events: %s", output)
	}
	if !strings.Contains(output, "cmd-2") {
		t.Errorf("expected conn-b event, got: %s", output)
	}
}

func TestBuildFilter(t *testing.T) {
	filter, err := BuildFilter("conn-a", "wire", "in", "cmd-1", "user-1")
	if err != nil {
		t.Fatalf("BuildFilter failed: %v", err)
	}
	if filter.ConnectionID != "conn-a" || filter.CommandID != "cmd-1" || filter.StreamID != "user-1" {
		t.Errorf("filter fields: %+v", filter)
	}
	if filter.Layer == nil || *filter.Layer != log.LayerWire {
		t.Error("expected wire layer filter")
	}
	if filter.Direction == nil || *filter.Direction != log.DirectionIn {
		t.Error("expected IN direction filter")
	}
}

func TestBuildFilterRejectsUnknown(t *testing.T) {
	if _, err := BuildFilter("", "session", "", "", ""); err == nil {
		t.Error("expected error for unknown layer")
	}
	if _, err := BuildFilter("", "", "sideways", "", ""); err == nil {
		t.Error("expected error for unknown direction")
	}
}

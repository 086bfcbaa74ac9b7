package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/log"
)

func TestStatsCounts(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-a", Layer: log.LayerWire, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: "command"}},
		{Timestamp: ts.Add(time.Second), ConnectionID: "conn-a", Layer: log.LayerWire, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: "command_result"}},
		{Timestamp: ts.Add(2 * time.Second), ConnectionID: "conn-b", Layer: log.LayerProtocol, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{NewState: "READY"}},
		{Timestamp: ts.Add(3 * time.Second), ConnectionID: "conn-b", Layer: log.LayerWire, Category: log.CategoryError,
			Error: &log.ErrorEventData{Code: "decode_failed", Message: "bad"}},
	}
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := Stats(&buf, path); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Events:      4") {
		t.Errorf("expected total count, got: %s", output)
	}
	if !strings.Contains(output, "Connections: 2") {
		t.Errorf("expected connection count, got: %s", output)
	}
	if !strings.Contains(output, "Errors:      1") {
		t.Errorf("expected error count, got: %s", output)
	}
	if !strings.Contains(output, "WIRE") || !strings.Contains(output, "PROTOCOL") {
		t.Errorf("expected layer breakdown, got: %s", output)
	}
	if !strings.Contains(output, "command_result") {
		t.Errorf("expected message type breakdown, got: %s", output)
	}
	if !strings.Contains(output, "(3s)") {
		t.Errorf("expected time span, got: %s", output)
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := Stats(&buf, path); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Events:      0") {
		t.Errorf("expected zero count, got: %s", buf.String())
	}
}

package wire

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/stream"
)

func TestCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{
			name: "with payload",
			cmd: Command{
				ID:      "cmd-1",
				Target:  "user-456",
				Name:    "CreateUser",
				Payload: json.RawMessage(`{"email":"ada@example.com","name":"Ada"}`),
			},
		},
		{
			name: "without payload",
			cmd: Command{
				ID:     "cmd-2",
				Target: "user-456",
				Name:   "DeleteUser",
			},
		},
		{
			name: "with trace context",
			cmd: Command{
				ID:      "cmd-3",
				Target:  "user-456",
				Name:    "CreateUser",
				Payload: json.RawMessage(`{}`),
				Context: &TraceContext{TraceID: "trace-1", ParentID: "span-9"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeCommand(&tt.cmd)
			if err != nil {
				t.Fatalf("EncodeCommand failed: %v", err)
			}

			msgType, err := PeekType(data)
			if err != nil {
				t.Fatalf("PeekType failed: %v", err)
			}
			if msgType != TypeCommand {
				t.Errorf("type: got %q, want %q", msgType, TypeCommand)
			}

			decoded, err := DecodeCommand(data)
			if err != nil {
				t.Fatalf("DecodeCommand failed: %v", err)
			}
			if decoded.ID != tt.cmd.ID || decoded.Target != tt.cmd.Target || decoded.Name != tt.cmd.Name {
				t.Errorf("envelope mismatch: got %+v, want %+v", decoded, tt.cmd)
			}
			if string(decoded.Payload) != string(tt.cmd.Payload) {
				t.Errorf("payload: got %s, want %s", decoded.Payload, tt.cmd.Payload)
			}
			if tt.cmd.Context != nil {
				if decoded.Context == nil || *decoded.Context != *tt.cmd.Context {
					t.Errorf("context: got %+v, want %+v", decoded.Context, tt.cmd.Context)
				}
			}
		})
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{name: "missing ID", cmd: Command{Name: "CreateUser"}, wantErr: ErrEmptyCommandID},
		{name: "missing name", cmd: Command{ID: "cmd-1"}, wantErr: ErrEmptyCommandName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeCommand(&tt.cmd); !errors.Is(err, tt.wantErr) {
				t.Errorf("EncodeCommand: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeRoundTrip(t *testing.T) {
	data, err := EncodeSubscribe(&Subscribe{StreamID: "user-123"})
	if err != nil {
		t.Fatalf("EncodeSubscribe failed: %v", err)
	}

	decoded, err := DecodeSubscribe(data)
	if err != nil {
		t.Fatalf("DecodeSubscribe failed: %v", err)
	}
	if decoded.StreamID != "user-123" {
		t.Errorf("streamID: got %q, want %q", decoded.StreamID, "user-123")
	}

	if _, err := EncodeSubscribe(&Subscribe{}); !errors.Is(err, ErrEmptyStreamID) {
		t.Errorf("empty streamID: got %v, want %v", err, ErrEmptyStreamID)
	}
}

func TestCommandResultVariants(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		res := CommandResult{
			CommandID: "cmd-1",
			Success:   true,
			Position:  &stream.Position{StreamID: "user-1", EventNumber: 3},
		}

		data, err := EncodeCommandResult(&res)
		if err != nil {
			t.Fatalf("EncodeCommandResult failed: %v", err)
		}
		decoded, err := DecodeCommandResult(data)
		if err != nil {
			t.Fatalf("DecodeCommandResult failed: %v", err)
		}
		if !decoded.Success || decoded.Position == nil || *decoded.Position != *res.Position {
			t.Errorf("decoded: %+v", decoded)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		res := CommandResult{
			CommandID: "cmd-2",
			Error:     `{"_tag":"ValidationError"}`,
		}

		data, err := EncodeCommandResult(&res)
		if err != nil {
			t.Fatalf("EncodeCommandResult failed: %v", err)
		}
		decoded, err := DecodeCommandResult(data)
		if err != nil {
			t.Fatalf("DecodeCommandResult failed: %v", err)
		}
		if decoded.Success || decoded.Error != res.Error {
			t.Errorf("decoded: %+v", decoded)
		}
	})

	t.Run("SuccessWithoutPosition", func(t *testing.T) {
		res := CommandResult{CommandID: "cmd-3", Success: true}
		if _, err := EncodeCommandResult(&res); !errors.Is(err, ErrMissingPosition) {
			t.Errorf("got %v, want %v", err, ErrMissingPosition)
		}
	})

	t.Run("FailureWithoutError", func(t *testing.T) {
		res := CommandResult{CommandID: "cmd-4"}
		if _, err := EncodeCommandResult(&res); !errors.Is(err, ErrMissingError) {
			t.Errorf("got %v, want %v", err, ErrMissingError)
		}
	})
}

func TestEventRoundTrip(t *testing.T) {
	ev := stream.Event{
		Position:  stream.Position{StreamID: "user-123", EventNumber: 1},
		Type:      "UserCreated",
		Data:      json.RawMessage(`{"email":"ada@example.com"}`),
		Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := EncodeEvent(FromStreamEvent(ev))
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	back := decoded.StreamEvent()
	if back.Position != ev.Position || back.Type != ev.Type {
		t.Errorf("roundtrip: got %+v, want %+v", back, ev)
	}
	if string(back.Data) != string(ev.Data) {
		t.Errorf("data: got %s, want %s", back.Data, ev.Data)
	}
	if !back.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("timestamp: got %v, want %v", back.Timestamp, ev.Timestamp)
	}
}

func TestDecodeClientMessage(t *testing.T) {
	cmdData, _ := EncodeCommand(&Command{ID: "cmd-1", Name: "CreateUser"})
	subData, _ := EncodeSubscribe(&Subscribe{StreamID: "user-1"})

	msg, err := DecodeClientMessage(cmdData)
	if err != nil {
		t.Fatalf("DecodeClientMessage(command) failed: %v", err)
	}
	if _, ok := msg.(*Command); !ok {
		t.Errorf("expected *Command, got %T", msg)
	}

	msg, err = DecodeClientMessage(subData)
	if err != nil {
		t.Fatalf("DecodeClientMessage(subscribe) failed: %v", err)
	}
	if _, ok := msg.(*Subscribe); !ok {
		t.Errorf("expected *Subscribe, got %T", msg)
	}

	// Server→client types are not valid client messages.
	resData, _ := EncodeCommandResult(&CommandResult{CommandID: "cmd-1", Error: "boom"})
	if _, err := DecodeClientMessage(resData); !errors.Is(err, ErrUnknownType) {
		t.Errorf("command_result as client message: got %v, want ErrUnknownType", err)
	}
}

func TestDecodeServerMessage(t *testing.T) {
	resData, _ := EncodeCommandResult(&CommandResult{CommandID: "cmd-1", Error: "boom"})
	evData, _ := EncodeEvent(&Event{
		StreamID:  "user-1",
		Position:  stream.Position{StreamID: "user-1", EventNumber: 1},
		EventType: "UserCreated",
	})

	msg, err := DecodeServerMessage(resData)
	if err != nil {
		t.Fatalf("DecodeServerMessage(result) failed: %v", err)
	}
	if _, ok := msg.(*CommandResult); !ok {
		t.Errorf("expected *CommandResult, got %T", msg)
	}

	msg, err = DecodeServerMessage(evData)
	if err != nil {
		t.Fatalf("DecodeServerMessage(event) failed: %v", err)
	}
	if _, ok := msg.(*Event); !ok {
		t.Errorf("expected *Event, got %T", msg)
	}
}

func TestPeekTypeMalformed(t *testing.T) {
	if _, err := PeekType([]byte("not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := PeekType([]byte(`{"foo":"bar"}`)); !errors.Is(err, ErrUnknownType) {
		t.Errorf("missing type field: got %v, want ErrUnknownType", err)
	}
}

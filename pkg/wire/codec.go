package wire

import (
	"encoding/json"
	"fmt"
)

// typedEnvelope is used to peek the discriminator of an encoded message.
type typedEnvelope struct {
	Type string `json:"type"`
}

// PeekType examines encoded JSON and returns its "type" discriminator
// without fully decoding the message.
func PeekType(data []byte) (string, error) {
	var env typedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("failed to peek message type: %w", err)
	}
	if env.Type == "" {
		return "", ErrUnknownType
	}
	return env.Type, nil
}

// EncodeCommand encodes a command message to JSON bytes.
func EncodeCommand(cmd *Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*Command
	}{TypeCommand, cmd})
}

// DecodeCommand decodes JSON bytes into a command message.
func DecodeCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	return &cmd, nil
}

// EncodeSubscribe encodes a subscribe message to JSON bytes.
func EncodeSubscribe(sub *Subscribe) ([]byte, error) {
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid subscribe: %w", err)
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*Subscribe
	}{TypeSubscribe, sub})
}

// DecodeSubscribe decodes JSON bytes into a subscribe message.
func DecodeSubscribe(data []byte) (*Subscribe, error) {
	var sub Subscribe
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscribe: %w", err)
	}
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid subscribe: %w", err)
	}
	return &sub, nil
}

// EncodeCommandResult encodes a command_result message to JSON bytes.
func EncodeCommandResult(res *CommandResult) ([]byte, error) {
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command result: %w", err)
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*CommandResult
	}{TypeCommandResult, res})
}

// DecodeCommandResult decodes JSON bytes into a command_result message.
func DecodeCommandResult(data []byte) (*CommandResult, error) {
	var res CommandResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode command result: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command result: %w", err)
	}
	return &res, nil
}

// EncodeEvent encodes an event message to JSON bytes.
func EncodeEvent(ev *Event) ([]byte, error) {
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*Event
	}{TypeEvent, ev})
}

// DecodeEvent decodes JSON bytes into an event message.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return &ev, nil
}

// DecodeClientMessage decodes a client→server message by its type
// discriminator. The result is *Command or *Subscribe.
func DecodeClientMessage(data []byte) (any, error) {
	msgType, err := PeekType(data)
	if err != nil {
		return nil, err
	}
	switch msgType {
	case TypeCommand:
		return DecodeCommand(data)
	case TypeSubscribe:
		return DecodeSubscribe(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msgType)
	}
}

// DecodeServerMessage decodes a server→client message by its type
// discriminator. The result is *CommandResult or *Event.
func DecodeServerMessage(data []byte) (any, error) {
	msgType, err := PeekType(data)
	if err != nil {
		return nil, err
	}
	switch msgType {
	case TypeCommandResult:
		return DecodeCommandResult(data)
	case TypeEvent:
		return DecodeEvent(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msgType)
	}
}

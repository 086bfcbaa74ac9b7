package tcp

import (
	"encoding/json"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/transport"
)

// envelope is the on-wire shape of one transport message. The payload stays
// opaque at this layer; pkg/wire owns its structure.
type envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeMessage(msg transport.Message) ([]byte, error) {
	return json.Marshal(envelope{
		ID:      msg.ID,
		Type:    msg.Type,
		Payload: msg.Payload,
	})
}

func decodeMessage(data []byte) (transport.Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return transport.Message{}, err
	}
	return transport.Message{
		ID:      env.ID,
		Type:    env.Type,
		Payload: env.Payload,
	}, nil
}

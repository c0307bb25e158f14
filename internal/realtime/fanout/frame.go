package fanout

import "encoding/json"

// Frame is the server-to-client wire format.
type Frame struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope is one dispatch as it travels between nodes.
type Envelope struct {
	Origin  string          `json:"origin"`
	Event   string          `json:"event"`
	Rooms   []string        `json:"rooms"`
	Except  string          `json:"except,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode builds the wire bytes for a single frame.
func Encode(event, room string, payload any) ([]byte, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Room: room, Data: data})
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	}
	return json.Marshal(payload)
}

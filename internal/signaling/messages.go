package signaling

import (
	"bytes"
	"encoding/json"
)

// Client to server.
const (
	EventRegister     = "register"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventStream       = "stream"
)

// Server to client.
const (
	EventCameraAvailable = "camera-available"
	EventNoCamera        = "no-camera"
	EventCreateOffer     = "create-offer"
	EventError           = "error"
)

// Envelope is the frame exchanged over the socket: {"type": ..., "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RegisterPayload is the data of a register event.
type RegisterPayload struct {
	Type     string `json:"type"`
	DeviceID string `json:"device_id"`
}

// StreamFrame is a base64 JPEG frame relayed when peer-to-peer is not used.
type StreamFrame struct {
	DeviceID  string `json:"device_id"`
	Image     string `json:"image"`
	Timestamp string `json:"timestamp"`
}

type devicePayload struct {
	DeviceID string `json:"device_id"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func encode(eventType string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = nil
	}
	return encodeRaw(eventType, raw)
}

func encodeRaw(eventType string, data json.RawMessage) []byte {
	out, _ := json.Marshal(Envelope{Type: eventType, Data: data})
	return out
}

// isObject reports whether raw is a JSON object.
func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 1 && trimmed[0] == '{' && json.Valid(trimmed)
}

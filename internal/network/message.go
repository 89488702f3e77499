package network

import "encoding/json"

// Message is the envelope for all traffic in both directions. Event routes
// the payload; Payload stays raw JSON until the handler for that event
// decodes it into its own DTO.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload and wraps it in an envelope. A payload that
// fails to marshal is a programming error on our side, so the envelope is
// still sent, just empty.
func NewMessage(event string, payload any) Message {
	if payload == nil {
		return Message{Event: event}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{Event: event}
	}
	return Message{Event: event, Payload: raw}
}

// Sender is the write side of a connected client. Engine code only ever
// talks to this interface, never to a live socket, which keeps the
// registry and bracket logic testable without a websocket server.
type Sender interface {
	ConnectionID() string
	Send() chan<- Message
}

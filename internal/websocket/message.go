package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewErrorMessage encodes an error reply for a single client.
func NewErrorMessage(text string) []byte {
	b, _ := json.Marshal(Message{Action: "error", Payload: map[string]string{"message": text}})
	return b
}

// NewPongMessage encodes the reply to a client ping.
func NewPongMessage() []byte {
	b, _ := json.Marshal(Message{Action: "pong"})
	return b
}

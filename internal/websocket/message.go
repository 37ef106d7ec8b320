package websocket

import "encoding/json"

// Actions sent by the server that are not task changes.
const (
	ActionPong  = "pong"
	ActionError = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewMessage encodes an action and its payload.
func NewMessage(action string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Action: action, Payload: payload})
}

// NewErrorMessage encodes an error reply.
func NewErrorMessage(message string) []byte {
	b, _ := json.Marshal(Message{Action: ActionError, Payload: map[string]string{"error": message}})
	return b
}

package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Actions sent by the server that are not punch events.
const (
	ActionError = "error"
	ActionPong  = "pong"
	ActionReady = "ready"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewMessage encodes a message with the given action and payload.
func NewMessage(action string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Action: action, Payload: payload})
}

// NewErrorMessage encodes an error message for a single client.
func NewErrorMessage(text string) []byte {
	return mustEncode(ActionError, map[string]string{"message": text})
}

// NewPongMessage encodes the reply to a client "ping".
func NewPongMessage() []byte {
	return mustEncode(ActionPong, nil)
}

// NewReadyMessage tells a freshly connected client which user's feed it joined.
func NewReadyMessage(username string) []byte {
	return mustEncode(ActionReady, map[string]string{"username": username})
}

func mustEncode(action string, payload interface{}) []byte {
	b, err := NewMessage(action, payload)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return []byte(`{"action":"error","payload":null}`)
	}
	return b
}

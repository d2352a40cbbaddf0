// Package hub fans liveness events out to websocket watchers using a
// channel-based register/unregister/broadcast loop.
package hub

// Message is a single JSON text frame queued for clients.
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded JSON bytes
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

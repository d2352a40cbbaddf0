// Package protocol defines the WebSocket message types pushed from the
// liveness server to watching clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → client messages
	TypeUpdate       MessageType = "update"       // Session state/message change
	TypeNotification MessageType = "notification" // User-facing toast
	TypeCaptured     MessageType = "captured"     // Proof photo thumbnail
	TypeEnded        MessageType = "ended"        // Session reached an outcome

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// UpdateData mirrors one visible state change of a capture session
type UpdateData struct {
	Session     string `json:"session"`
	State       string `json:"state"`
	Message     string `json:"message"`
	Indicator   string `json:"indicator"` // NEUTRAL, POSITIVE, CAUTION, ACTIVE
	Challenge   string `json:"challenge"` // BLINK, SMILE
	Instruction string `json:"instruction"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// NotificationData is a toast shown to the user
type NotificationData struct {
	Session  string `json:"session,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // info, success, error
}

// CapturedData carries the proof photo thumbnail
type CapturedData struct {
	Session string `json:"session"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
}

// EndedData reports how a session finished
type EndedData struct {
	Session string `json:"session"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

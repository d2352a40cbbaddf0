package protocol

import (
	"encoding/base64"
	"time"
)

// NewUpdateMessage creates a session update message
func NewUpdateMessage(u UpdateData) (*Message, error) {
	return NewMessage(TypeUpdate, u)
}

// NewNotificationMessage creates a notification message
func NewNotificationMessage(session, message, severity string) (*Message, error) {
	return NewMessage(TypeNotification, NotificationData{
		Session:  session,
		Message:  message,
		Severity: severity,
	})
}

// NewCapturedMessage creates a captured message from raw JPEG data
func NewCapturedMessage(session string, width, height int, jpegData []byte) (*Message, error) {
	return NewMessage(TypeCaptured, CapturedData{
		Session: session,
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
	})
}

// NewEndedMessage creates a session ended message
func NewEndedMessage(session, outcome, errText string) (*Message, error) {
	return NewMessage(TypeEnded, EndedData{
		Session: session,
		Outcome: outcome,
		Error:   errText,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// GetUpdateData extracts update data from a message
func (m *Message) GetUpdateData() (*UpdateData, error) {
	var data UpdateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetNotificationData extracts notification data from a message
func (m *Message) GetNotificationData() (*NotificationData, error) {
	var data NotificationData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCapturedData extracts captured data from a message
func (m *Message) GetCapturedData() (*CapturedData, error) {
	var data CapturedData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeImage decodes the base64 image data
func (c *CapturedData) DecodeImage() ([]byte, error) {
	return base64.StdEncoding.DecodeString(c.Data)
}

// GetEndedData extracts ended data from a message
func (m *Message) GetEndedData() (*EndedData, error) {
	var data EndedData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

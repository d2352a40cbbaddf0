package protocol

import (
	"bytes"
	"testing"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
	}{
		{"update message", TypeUpdate, UpdateData{Session: "s1", State: "READY"}},
		{"notification message", TypeNotification, NotificationData{Message: "hi", Severity: "info"}},
		{"nil data", TypePing, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if err != nil {
				t.Fatalf("NewMessage() error = %v", err)
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
			if tt.data == nil && msg.Data != nil {
				t.Error("expected no data for nil payload")
			}
		})
	}
}

func TestNewMessage_Unmarshalable(t *testing.T) {
	if _, err := NewMessage(TypeUpdate, make(chan int)); err == nil {
		t.Error("expected error for unmarshalable data")
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MessageType
		wantErr bool
	}{
		{"update", `{"type":"update","ts":1,"data":{"state":"READY"}}`, TypeUpdate, false},
		{"ended without data", `{"type":"ended"}`, TypeEnded, false},
		{"missing type", `{"ts":1}`, "", true},
		{"invalid json", `{not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && msg.Type != tt.want {
				t.Errorf("ParseMessage() type = %v, want %v", msg.Type, tt.want)
			}
		})
	}
}

func TestUpdateMessage(t *testing.T) {
	msg, err := NewUpdateMessage(UpdateData{
		Session:     "abc",
		State:       "READY",
		Message:     "Get ready: Smile for the Camera",
		Indicator:   "POSITIVE",
		Challenge:   "SMILE",
		Instruction: "Smile for the Camera",
		ElapsedMs:   4500,
	})
	if err != nil {
		t.Fatalf("NewUpdateMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	u, err := parsed.GetUpdateData()
	if err != nil {
		t.Fatalf("GetUpdateData() error = %v", err)
	}
	if u.Indicator != "POSITIVE" || u.ElapsedMs != 4500 || u.Challenge != "SMILE" {
		t.Errorf("unexpected update: %+v", u)
	}
}

func TestCapturedMessage_DecodeImage(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	msg, err := NewCapturedMessage("abc", 160, 120, jpeg)
	if err != nil {
		t.Fatalf("NewCapturedMessage() error = %v", err)
	}

	data, err := msg.GetCapturedData()
	if err != nil {
		t.Fatalf("GetCapturedData() error = %v", err)
	}
	if data.Format != "jpeg" || data.Width != 160 {
		t.Errorf("unexpected captured data: %+v", data)
	}
	decoded, err := data.DecodeImage()
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if !bytes.Equal(decoded, jpeg) {
		t.Errorf("decoded image mismatch: %v", decoded)
	}
}

func TestEndedAndNotification(t *testing.T) {
	ended, err := NewEndedMessage("abc", "FAILED", "camera unavailable")
	if err != nil {
		t.Fatalf("NewEndedMessage() error = %v", err)
	}
	e, err := ended.GetEndedData()
	if err != nil || e.Outcome != "FAILED" || e.Error != "camera unavailable" {
		t.Errorf("unexpected ended data: %+v, %v", e, err)
	}

	note, err := NewNotificationMessage("abc", "Camera access is required.", "error")
	if err != nil {
		t.Fatalf("NewNotificationMessage() error = %v", err)
	}
	n, err := note.GetNotificationData()
	if err != nil || n.Severity != "error" || n.Session != "abc" {
		t.Errorf("unexpected notification data: %+v, %v", n, err)
	}
}

func TestPingPong(t *testing.T) {
	ping, err := NewPingMessage("p1")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}
	pd, err := ping.GetPingData()
	if err != nil || pd.ID != "p1" || pd.Timestamp == 0 {
		t.Fatalf("unexpected ping data: %+v, %v", pd, err)
	}

	pong, err := NewPongMessage("p1", 100, 130)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	po, err := pong.GetPongData()
	if err != nil || po.LatencyMs != 30 {
		t.Errorf("unexpected pong data: %+v, %v", po, err)
	}
}

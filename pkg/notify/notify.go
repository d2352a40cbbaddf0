// Package notify delivers user-facing messages (the toasts of the
// self-service app) to whatever surface is listening.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Sink accepts user-facing notifications.
type Sink interface {
	Notify(message string, severity Severity)
}

// Notification is a delivered message.
type Notification struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
	Session  string    `json:"session,omitempty"`
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(message string, severity Severity)

// Notify implements Sink.
func (f SinkFunc) Notify(message string, severity Severity) {
	f(message, severity)
}

// Publisher receives fully populated notifications.
type Publisher interface {
	Publish(n Notification)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(n Notification)

// Publish implements Publisher.
func (f PublisherFunc) Publish(n Notification) {
	f(n)
}

// ForSession returns a Sink that stamps notifications with the session
// ID and current time before handing them to pub.
func ForSession(session string, pub Publisher) Sink {
	return SinkFunc(func(message string, severity Severity) {
		pub.Publish(Notification{
			Message:  message,
			Severity: severity,
			Time:     time.Now(),
			Session:  session,
		})
	})
}

// LogSink writes notifications to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink backed by logger (slog.Default if nil).
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Notify logs at error level for SeverityError and info otherwise.
func (s *LogSink) Notify(message string, severity Severity) {
	if severity == SeverityError {
		s.logger.Error("notification", "message", message, "severity", severity)
		return
	}
	s.logger.Info("notification", "message", message, "severity", severity)
}

// Multi fans a notification out to every sink in order.
type Multi []Sink

// Notify implements Sink.
func (m Multi) Notify(message string, severity Severity) {
	for _, s := range m {
		if s != nil {
			s.Notify(message, severity)
		}
	}
}

// Recorder keeps every notification in memory. Used in tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements Sink.
func (r *Recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{
		Message:  message,
		Severity: severity,
		Time:     time.Now(),
	})
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Count returns how many notifications had the given severity.
func (r *Recorder) Count(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Severity == severity {
			n++
		}
	}
	return n
}

// Verify implementations at compile time.
var (
	_ Sink = SinkFunc(nil)
	_ Sink = (*LogSink)(nil)
	_ Sink = Multi(nil)
	_ Sink = (*Recorder)(nil)
)

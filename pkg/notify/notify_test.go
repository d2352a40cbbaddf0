package notify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Notify("saved", SeveritySuccess)
	r.Notify("camera blocked", SeverityError)
	r.Notify("camera blocked again", SeverityError)

	if len(r.All()) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(r.All()))
	}
	if r.Count(SeverityError) != 2 {
		t.Errorf("expected 2 errors, got %d", r.Count(SeverityError))
	}
	if r.All()[0].Message != "saved" {
		t.Errorf("unexpected first message %q", r.All()[0].Message)
	}
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	var fnCalls int
	m := Multi{a, nil, b, SinkFunc(func(string, Severity) { fnCalls++ })}

	m.Notify("hello", SeverityInfo)

	if len(a.All()) != 1 || len(b.All()) != 1 || fnCalls != 1 {
		t.Error("expected every sink to receive the notification")
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := NewLogSink(logger)

	s.Notify("camera blocked", SeverityError)
	s.Notify("photo saved", SeveritySuccess)

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "camera blocked") {
		t.Errorf("expected error line, got %q", out)
	}
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "photo saved") {
		t.Errorf("expected info line, got %q", out)
	}
}

func TestForSession(t *testing.T) {
	var got []Notification
	pub := PublisherFunc(func(n Notification) { got = append(got, n) })

	s := ForSession("abc", pub)
	s.Notify("camera blocked", SeverityError)

	if len(got) != 1 {
		t.Fatalf("expected 1 published notification, got %d", len(got))
	}
	if got[0].Session != "abc" || got[0].Severity != SeverityError || got[0].Time.IsZero() {
		t.Errorf("unexpected notification %+v", got[0])
	}
}

package web

import (
	"log/slog"

	"github.com/teslashibe/go-liveness/pkg/hub"
	"github.com/teslashibe/go-liveness/pkg/liveness"
	"github.com/teslashibe/go-liveness/pkg/notify"
	"github.com/teslashibe/go-liveness/pkg/protocol"
	"github.com/teslashibe/go-liveness/pkg/session"
)

// HubSink publishes notifications to websocket watchers.
type HubSink struct {
	hub *hub.Hub
}

// NewHubSink creates a publisher backed by h.
func NewHubSink(h *hub.Hub) *HubSink {
	return &HubSink{hub: h}
}

// Publish implements notify.Publisher. It never blocks.
func (s *HubSink) Publish(n notify.Notification) {
	msg, err := protocol.NewNotificationMessage(n.Session, n.Message, string(n.Severity))
	if err != nil {
		slog.Warn("encode notification failed", "error", err)
		return
	}
	_ = s.hub.BroadcastMessage(msg)
}

// UpdateData converts a controller update to its wire form.
func UpdateData(u liveness.Update) protocol.UpdateData {
	return protocol.UpdateData{
		Session:     u.Session,
		State:       string(u.State),
		Message:     u.Message,
		Indicator:   string(u.Indicator),
		Challenge:   string(u.Challenge.Kind),
		Instruction: u.Challenge.Instruction,
		ElapsedMs:   u.Elapsed.Milliseconds(),
	}
}

// broadcastUpdate runs under the controller lock, so it only queues.
func (s *Server) broadcastUpdate(u liveness.Update) {
	msg, err := protocol.NewUpdateMessage(UpdateData(u))
	if err != nil {
		s.logger.Warn("encode update failed", "error", err)
		return
	}
	_ = s.updates.BroadcastMessage(msg)
}

func (s *Server) broadcastEnd(info session.Info) {
	if info.Snapshot.Outcome == liveness.OutcomeCaptured {
		if thumb, err := s.sessions.Thumbnail(info.ID); err == nil {
			if msg, err := protocol.NewCapturedMessage(info.ID, thumb.Width, thumb.Height, thumb.Data); err == nil {
				_ = s.updates.BroadcastMessage(msg)
			}
		}
	}

	msg, err := protocol.NewEndedMessage(info.ID, string(info.Snapshot.Outcome), info.Snapshot.Error)
	if err != nil {
		s.logger.Warn("encode ended failed", "error", err)
		return
	}
	_ = s.updates.BroadcastMessage(msg)
}

var _ notify.Publisher = (*HubSink)(nil)

package web

import (
	"bytes"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/hub"
	"github.com/teslashibe/go-liveness/pkg/report"
	"github.com/teslashibe/go-liveness/pkg/session"
)

// CreateRequest is the body of POST /api/liveness. An empty body selects
// the front camera.
type CreateRequest struct {
	Facing string `json:"facing"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Sessions      int         `json:"sessions"`
	CameraBackend string      `json:"camera_backend"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	Hubs          []HubStatus `json:"hubs"`
}

// HubStatus reports one websocket stream.
type HubStatus struct {
	Name    string `json:"name"`
	Clients int    `json:"clients"`
	Dropped int    `json:"dropped"`
}

func hubStatus(h *hub.Hub) HubStatus {
	return HubStatus{Name: h.Name(), Clients: h.ClientCount(), Dropped: h.Dropped()}
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Sessions:      s.sessions.Len(),
		CameraBackend: string(s.camera.GetConfig().Backend),
		UptimeSeconds: time.Since(s.started).Seconds(),
		Hubs:          []HubStatus{hubStatus(s.updates), hubStatus(s.notifications)},
	})
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	facing := camera.Facing(req.Facing)
	switch facing {
	case "", camera.FacingFront, camera.FacingRear:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "facing must be front or rear",
		})
	}

	info, err := s.sessions.Create(s.ctx, facing)
	if err != nil {
		return s.sessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(info)
}

func (s *Server) handleList(c *fiber.Ctx) error {
	return c.JSON(s.sessions.List())
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	info, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return s.sessionError(c, err)
	}
	return c.JSON(info)
}

// handleCancel mirrors the user's Cancel button.
func (s *Server) handleCancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.sessions.Cancel(id); err != nil {
		return s.sessionError(c, err)
	}
	info, err := s.sessions.Get(id)
	if err != nil {
		return s.sessionError(c, err)
	}
	return c.JSON(info)
}

func (s *Server) handlePhoto(c *fiber.Ctx) error {
	img, err := s.sessions.Photo(c.Params("id"))
	if err != nil {
		return s.sessionError(c, err)
	}
	return sendImage(c, img)
}

func (s *Server) handleThumbnail(c *fiber.Ctx) error {
	img, err := s.sessions.Thumbnail(c.Params("id"))
	if err != nil {
		return s.sessionError(c, err)
	}
	return sendImage(c, img)
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := report.Write(&buf, s.sessions.List(), time.Now()); err != nil {
		s.logger.Error("report export failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="liveness-report.xlsx"`)
	return c.Send(buf.Bytes())
}

func (s *Server) handleGetCameraConfig(c *fiber.Ctx) error {
	return c.JSON(s.camera.GetConfigJSON())
}

// handleUpdateCameraConfig accepts a partial config, optionally with a
// "preset" key.
func (s *Server) handleUpdateCameraConfig(c *fiber.Ctx) error {
	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := s.camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.logger.Info("camera config updated", "params", params)
	return c.JSON(s.camera.GetConfigJSON())
}

func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": camera.PresetNames(),
		"configs": camera.Presets(),
	})
}

func (s *Server) handleUpdatesWS(c *websocket.Conn) {
	hub.NewClient(s.updates, c).Run()
}

func (s *Server) handleNotificationsWS(c *websocket.Conn) {
	hub.NewClient(s.notifications, c).Run()
}

func (s *Server) sessionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrNoPhoto):
		status = fiber.StatusNotFound
	case errors.Is(err, session.ErrClosed):
		status = fiber.StatusServiceUnavailable
	default:
		s.logger.Error("session request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func sendImage(c *fiber.Ctx, img camera.Image) error {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(img.Data)
}

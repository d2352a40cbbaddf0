// Package web serves the liveness capture API and its websocket streams.
package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/hub"
	"github.com/teslashibe/go-liveness/pkg/session"
)

// Config configures the server.
type Config struct {
	Port    string
	Session session.Config  // Publisher, OnUpdate and OnEnd are set by the server
	Camera  *camera.Manager // optional, defaults to camera.DefaultConfig
	Logger  *slog.Logger
}

// Server is the liveness HTTP server.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	sessions *session.Manager
	camera   *camera.Manager

	// Hubs for websocket broadcast
	updates       *hub.Hub
	notifications *hub.Hub

	// ctx bounds camera acquisition for sessions created over HTTP.
	ctx     context.Context
	stop    context.CancelFunc
	started time.Time
}

// NewServer creates the server and its session manager.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Camera == nil {
		cfg.Camera = camera.NewManager(camera.DefaultConfig())
	}
	logger := cfg.Logger.With("component", "web")

	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		port:          cfg.Port,
		logger:        logger,
		camera:        cfg.Camera,
		updates:       hub.New("liveness", cfg.Logger),
		notifications: hub.New("notifications", cfg.Logger),
		ctx:           ctx,
		stop:          stop,
		started:       time.Now(),
	}

	sc := cfg.Session
	if sc.Logger == nil {
		sc.Logger = cfg.Logger
	}
	sc.Publisher = NewHubSink(s.notifications)
	sc.OnUpdate = s.broadcastUpdate
	sc.OnEnd = s.broadcastEnd

	sessions, err := session.NewManager(sc)
	if err != nil {
		stop()
		return nil, err
	}
	s.sessions = sessions

	app := fiber.New(fiber.Config{
		AppName:               "Liveness",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)

	// report.xlsx must be registered before /:id.
	api.Post("/liveness", s.handleCreate)
	api.Get("/liveness", s.handleList)
	api.Get("/liveness/report.xlsx", s.handleReport)
	api.Get("/liveness/:id", s.handleGet)
	api.Delete("/liveness/:id", s.handleCancel)
	api.Get("/liveness/:id/photo", s.handlePhoto)
	api.Get("/liveness/:id/thumbnail", s.handleThumbnail)

	api.Get("/camera/config", s.handleGetCameraConfig)
	api.Put("/camera/config", s.handleUpdateCameraConfig)
	api.Get("/camera/presets", s.handleCameraPresets)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/liveness", websocket.New(s.handleUpdatesWS))
	app.Get("/ws/notifications", websocket.New(s.handleNotificationsWS))

	s.app = app
	return s, nil
}

// Start runs the hubs and blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("liveness server listening", "addr", "http://localhost:"+s.port)

	go s.updates.Run(s.ctx)
	go s.notifications.Run(s.ctx)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// Shutdown stops the hubs, disposes every session and stops serving.
// Hubs stop first, which closes websocket watchers.
func (s *Server) Shutdown() error {
	s.stop()
	s.sessions.Close()
	return s.app.Shutdown()
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Sessions returns the server's session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

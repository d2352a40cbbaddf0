// liveness-server serves the self-service liveness capture API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-liveness/internal/config"
	"github.com/teslashibe/go-liveness/internal/devices"
	"github.com/teslashibe/go-liveness/internal/log"
	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/debug"
	"github.com/teslashibe/go-liveness/pkg/session"
	"github.com/teslashibe/go-liveness/pkg/web"
)

func main() {
	env, err := config.FromEnv()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	port := flag.String("port", env.Port, "HTTP port (overrides LIVENESS_PORT)")
	backend := flag.String("camera", env.CameraBackend, "Camera backend: mock, webcam")
	preset := flag.String("preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	model := flag.String("face-model", env.FaceModelPath, "YuNet ONNX model for face checks (empty disables)")
	level := flag.String("log-level", env.LogLevel, "Log level: debug, info, warn, error")
	maxSessions := flag.Int("max-sessions", env.MaxSessions, "Ended sessions kept in memory")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug output")
	timeline := flag.Bool("debug-timeline", false, "Print every liveness timeline step")
	flag.Parse()

	log.Init(*level)
	debug.Enabled, debug.Timeline = *debugFlag, *timeline
	logger := log.L()

	env.CameraBackend = *backend
	camCfg := devices.CameraConfig(env)
	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			log.Error("unknown camera preset", "preset", *preset)
			os.Exit(1)
		}
		p.Backend, p.FrontDevice, p.RearDevice = camCfg.Backend, camCfg.FrontDevice, camCfg.RearDevice
		camCfg = *p
	}

	devs, err := devices.Open(camCfg, *model, logger)
	if err != nil {
		log.Error("camera setup failed", "error", err)
		os.Exit(1)
	}
	defer devs.Close()

	camMgr := camera.NewManager(camCfg)
	camMgr.OnConfigChange = devs.Reconfigure

	sc := session.DefaultConfig()
	sc.Camera = devs.Camera
	sc.Verifier = devs.Verifier
	sc.Logger = logger
	sc.MaxSessions = *maxSessions
	sc.Quality = camCfg.Quality

	srv, err := web.NewServer(web.Config{
		Port:    *port,
		Session: sc,
		Camera:  camMgr,
		Logger:  logger,
	})
	if err != nil {
		log.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv.StartAsync()
	<-ctx.Done()

	log.Info("shutting down")
	done := make(chan error, 1)
	go func() { done <- srv.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			log.Warn("shutdown error", "error", err)
		}
	case <-time.After(5 * time.Second):
		log.Warn("shutdown timed out")
	}
}

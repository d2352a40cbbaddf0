// Package devices builds the camera and face verifier selected by the
// environment for the liveness commands.
package devices

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-liveness/internal/config"
	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/camera/webcam"
	"github.com/teslashibe/go-liveness/pkg/detection"
	"github.com/teslashibe/go-liveness/pkg/liveness"
)

// Set is the opened camera plus an optional verifier.
type Set struct {
	Camera   camera.Device
	Verifier liveness.FrameVerifier // nil when no face model is configured
	Config   camera.Config

	webcam   *webcam.Device
	detector *detection.YuNetDetector
}

// CameraConfig derives the camera configuration from env.
func CameraConfig(env config.Env) camera.Config {
	cfg := camera.DefaultConfig()
	cfg.Backend = camera.Backend(env.CameraBackend)
	cfg.FrontDevice = env.CameraDevice
	cfg.RearDevice = env.RearDevice
	return cfg
}

// Open builds the devices described by cfg. modelPath enables the YuNet
// face check when non-empty.
func Open(cfg camera.Config, modelPath string, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid camera config: %v", errs)
	}

	s := &Set{Config: cfg}
	switch cfg.Backend {
	case camera.BackendMock:
		s.Camera = camera.NewMockFromConfig(cfg)
	case camera.BackendWebcam:
		dev, err := webcam.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		s.webcam = dev
		s.Camera = dev
	default:
		return nil, fmt.Errorf("unknown camera backend %q", cfg.Backend)
	}

	if modelPath != "" {
		dcfg := detection.DefaultConfig()
		dcfg.ModelPath = modelPath
		det, err := detection.NewYuNet(dcfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("load face model: %w", err)
		}
		s.detector = det
		s.Verifier = detection.NewFacePresence(det)
		logger.Info("face presence check enabled", "model", modelPath)
	}

	logger.Info("camera ready", "backend", cfg.Backend, "width", cfg.Width, "height", cfg.Height)
	return s, nil
}

// Reconfigure applies new camera settings. Only the webcam backend
// supports changes at runtime; the mock resizes its synthetic frames.
func (s *Set) Reconfigure(cfg camera.Config) error {
	if cfg.Backend != s.Config.Backend {
		return errors.New("camera backend cannot change at runtime")
	}
	switch {
	case s.webcam != nil:
		if err := s.webcam.Reconfigure(cfg); err != nil {
			return err
		}
	default:
		if m, ok := s.Camera.(*camera.Mock); ok {
			m.Resize(cfg.Width, cfg.Height, cfg.Quality)
		}
	}
	s.Config = cfg
	return nil
}

// Close releases the webcam and the face model.
func (s *Set) Close() error {
	var errs []error
	if s.webcam != nil {
		errs = append(errs, s.webcam.Close())
	}
	if s.detector != nil {
		errs = append(errs, s.detector.Close())
	}
	return errors.Join(errs...)
}

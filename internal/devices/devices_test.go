package devices

import (
	"testing"

	"github.com/teslashibe/go-liveness/internal/config"
	"github.com/teslashibe/go-liveness/pkg/camera"
)

func TestCameraConfig(t *testing.T) {
	cfg := CameraConfig(config.Env{CameraBackend: "webcam", CameraDevice: 2, RearDevice: 3})
	if cfg.Backend != camera.BackendWebcam || cfg.FrontDevice != 2 || cfg.RearDevice != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("derived config invalid: %v", errs)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		backend camera.Backend
		model   string
		wantErr bool
	}{
		{"mock", camera.BackendMock, "", false},
		{"unknown backend", camera.Backend("usb"), "", true},
		{"missing model", camera.BackendMock, "/nonexistent/yunet.onnx", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := camera.DefaultConfig()
			cfg.Backend = tt.backend
			set, err := Open(cfg, tt.model, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer set.Close()
			if set.Camera == nil {
				t.Error("expected camera")
			}
			if set.Verifier != nil {
				t.Error("expected no verifier without a model")
			}
		})
	}
}

func TestReconfigure_Mock(t *testing.T) {
	set, err := Open(camera.DefaultConfig(), "", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	low := camera.LowBandwidthConfig()
	if err := set.Reconfigure(low); err != nil {
		t.Fatalf("Reconfigure failed: %v", err)
	}
	m := set.Camera.(*camera.Mock)
	if m.Width != 320 || m.Quality != 70 {
		t.Errorf("mock not resized: %dx%d q%d", m.Width, m.Height, m.Quality)
	}

	kiosk := camera.KioskConfig()
	if err := set.Reconfigure(kiosk); err == nil {
		t.Error("expected error when switching backend")
	}
}

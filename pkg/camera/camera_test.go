package camera

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"testing"
	"time"
)

func TestMockDevice(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	s, err := m.Acquire(ctx, FacingFront)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if s.Facing() != FacingFront {
		t.Errorf("expected front facing, got %s", s.Facing())
	}

	t.Run("GrabFrame returns decodable JPEG", func(t *testing.T) {
		img, err := m.GrabFrame(s)
		if err != nil {
			t.Fatalf("GrabFrame failed: %v", err)
		}
		if img.Empty() {
			t.Fatal("expected image data")
		}
		if img.MIMEType != "image/jpeg" {
			t.Errorf("expected image/jpeg, got %s", img.MIMEType)
		}
		decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Bounds().Dx() != 320 || decoded.Bounds().Dy() != 240 {
			t.Errorf("unexpected size %v", decoded.Bounds())
		}
	})

	t.Run("Release closes stream", func(t *testing.T) {
		m.Release(s)
		if m.OpenStreams() != 0 {
			t.Errorf("expected 0 open streams, got %d", m.OpenStreams())
		}
		_, err := m.GrabFrame(s)
		if !errors.Is(err, ErrStreamClosed) {
			t.Errorf("expected ErrStreamClosed, got %v", err)
		}
	})

	t.Run("Release twice is recorded but harmless", func(t *testing.T) {
		m.Release(s)
		if m.CallCount("Release") != 2 {
			t.Errorf("expected 2 Release calls, got %d", m.CallCount("Release"))
		}
	})
}

func TestMockWithError(t *testing.T) {
	m := WithError(ErrPermissionDenied)
	_, err := m.Acquire(context.Background(), FacingFront)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
	if m.OpenStreams() != 0 {
		t.Error("failed acquire must not leave an open stream")
	}
}

func TestMockWithLatency_Cancelled(t *testing.T) {
	m := WithLatency(NewMock(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Acquire(ctx, FacingFront)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDeviceError(t *testing.T) {
	err := WrapError("webcam0", "open", ErrBusy)
	if !errors.Is(err, ErrBusy) {
		t.Error("expected wrapped error to match ErrBusy")
	}
	var de *DeviceError
	if !errors.As(err, &de) || de.Device != "webcam0" {
		t.Errorf("expected DeviceError for webcam0, got %v", err)
	}
	if WrapError("x", "y", nil) != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"bad backend", func(c *Config) { c.Backend = "ffmpeg" }, true},
		{"tiny width", func(c *Config) { c.Width = 10 }, true},
		{"huge height", func(c *Config) { c.Height = 5000 }, true},
		{"zero quality", func(c *Config) { c.Quality = 0 }, true},
		{"negative device", func(c *Config) { c.FrontDevice = -1 }, true},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, true},
		{"too much warmup", func(c *Config) { c.WarmupFrames = 100 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			errs := cfg.Validate()
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	for name, cfg := range Presets() {
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %s invalid: %v", name, errs)
		}
	}
	if GetPreset("nope") != nil {
		t.Error("expected nil for unknown preset")
	}
	if len(PresetNames()) != len(Presets()) {
		t.Error("PresetNames length mismatch")
	}
}

func TestDeviceFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrontDevice, cfg.RearDevice = 2, 3
	if cfg.DeviceFor(FacingFront) != 2 || cfg.DeviceFor(FacingRear) != 3 {
		t.Error("DeviceFor returned wrong index")
	}
}

func TestManagerUpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())

	var applied Config
	m.OnConfigChange = func(cfg Config) error {
		applied = cfg
		return nil
	}

	err := m.UpdateConfig(map[string]any{
		"preset":  Preset720p,
		"quality": float64(60),
		"mirror":  false,
	})
	if err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("expected 720p, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Quality != 60 {
		t.Errorf("expected quality 60, got %d", cfg.Quality)
	}
	if cfg.Mirror {
		t.Error("expected mirror disabled")
	}
	if applied != cfg {
		t.Error("OnConfigChange did not receive the new config")
	}

	if err := m.UpdateConfig(map[string]any{"preset": "nope"}); err == nil {
		t.Error("expected error for unknown preset")
	}
	if err := m.UpdateConfig(map[string]any{"width": 1}); err == nil {
		t.Error("expected validation error")
	}
	if m.GetConfig().Width != 1280 {
		t.Error("invalid update must not change config")
	}
}

func TestManagerPresetKeepsBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendWebcam
	m := NewManager(cfg)

	if err := m.UpdateConfig(map[string]any{"preset": PresetLow}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if m.GetConfig().Backend != BackendWebcam {
		t.Error("preset must not change the backend")
	}
}

func TestManagerCallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.OnConfigChange = func(Config) error { return errors.New("device gone") }

	if err := m.SetConfig(DefaultConfig()); err == nil {
		t.Error("expected callback error to propagate")
	}
}

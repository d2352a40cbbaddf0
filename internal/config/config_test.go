package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"LIVENESS_PORT", "CAMERA_BACKEND", "CAMERA_DEVICE", "CAMERA_REAR_DEVICE",
		"FACE_MODEL_PATH", "LOG_LEVEL", "LIVENESS_MAX_SESSIONS",
		"LIVENESS_ACQUIRE_TIMEOUT", "LIVENESS_SERVER_URL",
	} {
		t.Setenv(k, "")
	}

	e, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if e.Port != DefaultPort || e.CameraBackend != "mock" || e.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", e)
	}
	if e.CameraDevice != 0 || e.RearDevice != 1 {
		t.Errorf("unexpected device defaults: %+v", e)
	}
	if e.AcquireTimeout != 20*time.Second || e.MaxSessions != DefaultMaxSessions {
		t.Errorf("unexpected limits: %+v", e)
	}
	if e.FaceModelPath != "" {
		t.Errorf("face model should default to empty, got %q", e.FaceModelPath)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("LIVENESS_PORT", "9000")
	t.Setenv("CAMERA_BACKEND", "webcam")
	t.Setenv("CAMERA_DEVICE", "2")
	t.Setenv("FACE_MODEL_PATH", "/models/yunet.onnx")
	t.Setenv("LIVENESS_ACQUIRE_TIMEOUT", "5s")

	e, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if e.Port != "9000" || e.CameraBackend != "webcam" || e.CameraDevice != 2 {
		t.Errorf("overrides not applied: %+v", e)
	}
	if e.FaceModelPath != "/models/yunet.onnx" || e.AcquireTimeout != 5*time.Second {
		t.Errorf("overrides not applied: %+v", e)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CAMERA_DEVICE", "front"},
		{"LIVENESS_MAX_SESSIONS", "many"},
		{"LIVENESS_ACQUIRE_TIMEOUT", "20"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

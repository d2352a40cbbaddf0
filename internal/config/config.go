// Package config provides environment configuration for the liveness
// commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults used when the environment does not override them.
const (
	DefaultPort          = "8080"
	DefaultCameraBackend = "mock"
	DefaultLogLevel      = "info"
	DefaultMaxSessions   = 100
	DefaultServerURL     = "ws://localhost:8080"
)

// Env is the environment-derived configuration shared by the commands.
type Env struct {
	Port           string        // LIVENESS_PORT
	CameraBackend  string        // CAMERA_BACKEND: mock | webcam
	CameraDevice   int           // CAMERA_DEVICE: front camera index
	RearDevice     int           // CAMERA_REAR_DEVICE
	FaceModelPath  string        // FACE_MODEL_PATH: YuNet ONNX model, empty disables face checks
	LogLevel       string        // LOG_LEVEL
	MaxSessions    int           // LIVENESS_MAX_SESSIONS
	AcquireTimeout time.Duration // LIVENESS_ACQUIRE_TIMEOUT
	ServerURL      string        // LIVENESS_SERVER_URL, used by watchers
}

// FromEnv reads the environment, applying defaults for unset values.
// Malformed numeric values are reported rather than silently ignored.
func FromEnv() (Env, error) {
	e := Env{
		Port:          String("LIVENESS_PORT", DefaultPort),
		CameraBackend: String("CAMERA_BACKEND", DefaultCameraBackend),
		FaceModelPath: os.Getenv("FACE_MODEL_PATH"),
		LogLevel:      String("LOG_LEVEL", DefaultLogLevel),
		ServerURL:     String("LIVENESS_SERVER_URL", DefaultServerURL),
	}

	var err error
	if e.CameraDevice, err = Int("CAMERA_DEVICE", 0); err != nil {
		return Env{}, err
	}
	if e.RearDevice, err = Int("CAMERA_REAR_DEVICE", 1); err != nil {
		return Env{}, err
	}
	if e.MaxSessions, err = Int("LIVENESS_MAX_SESSIONS", DefaultMaxSessions); err != nil {
		return Env{}, err
	}
	if e.AcquireTimeout, err = Duration("LIVENESS_ACQUIRE_TIMEOUT", 20*time.Second); err != nil {
		return Env{}, err
	}
	return e, nil
}

// String returns the value of key, or def when unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int parses key as an integer, returning def when unset.
func Int(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid integer %q", key, v)
	}
	return n, nil
}

// Duration parses key as a Go duration ("20s", "1m"), returning def when unset.
func Duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid duration %q", key, v)
	}
	return d, nil
}

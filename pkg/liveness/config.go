package liveness

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/clock"
)

// FrameVerifier inspects the captured still before it is handed to the
// caller. detection.FacePresence satisfies it.
type FrameVerifier interface {
	Verify(img camera.Image) error
}

// Config holds controller configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Session labels log lines and updates.
	Session string

	// Scheduling
	Clock  clock.Clock
	Random RandomSource

	// Camera
	Facing         camera.Facing
	AcquireTimeout time.Duration // 0 disables the timeout
	CaptureDelay   time.Duration // CAPTURING entry to frame grab

	// Optional post-capture check
	Verifier FrameVerifier

	// Observer receives every visible state change. It is called with the
	// controller lock held and must not call back into the controller.
	Observer func(Update)

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring a Controller.
type Option func(*Config)

// WithSession sets the session label.
func WithSession(id string) Option {
	return func(c *Config) {
		c.Session = id
	}
}

// WithClock overrides the scheduling clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.Clock = clk
	}
}

// WithRandom overrides the challenge selection source.
func WithRandom(r RandomSource) Option {
	return func(c *Config) {
		c.Random = r
	}
}

// WithFacing selects the front or rear camera.
func WithFacing(f camera.Facing) Option {
	return func(c *Config) {
		c.Facing = f
	}
}

// WithAcquireTimeout bounds how long camera acquisition may take.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.AcquireTimeout = d
	}
}

// WithCaptureDelay sets the pause between CAPTURING entry and the grab.
func WithCaptureDelay(d time.Duration) Option {
	return func(c *Config) {
		c.CaptureDelay = d
	}
}

// WithVerifier enables a post-capture frame check.
func WithVerifier(v FrameVerifier) Option {
	return func(c *Config) {
		c.Verifier = v
	}
}

// WithObserver registers a state change observer.
func WithObserver(fn func(Update)) Option {
	return func(c *Config) {
		c.Observer = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Clock:          clock.Real(),
		Random:         globalRandom{},
		Facing:         camera.FacingFront,
		AcquireTimeout: 20 * time.Second,
		CaptureDelay:   DefaultCaptureDelay,
		Logger:         slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Clock == nil {
		return errors.New("liveness: clock required")
	}
	if c.Random == nil {
		return errors.New("liveness: random source required")
	}
	if c.Facing != camera.FacingFront && c.Facing != camera.FacingRear {
		return fmt.Errorf("liveness: unknown facing %q", c.Facing)
	}
	if c.AcquireTimeout < 0 {
		return fmt.Errorf("liveness: acquire timeout must not be negative, got %v", c.AcquireTimeout)
	}
	if c.CaptureDelay < 0 {
		return fmt.Errorf("liveness: capture delay must not be negative, got %v", c.CaptureDelay)
	}
	return nil
}

package camera

import "fmt"

// Backend selects the camera implementation.
type Backend string

const (
	// BackendMock serves synthetic frames without hardware.
	BackendMock Backend = "mock"
	// BackendWebcam uses a local capture device through OpenCV.
	BackendWebcam Backend = "webcam"
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	Backend Backend `json:"backend"`

	// === Devices ===
	// Device indices as seen by the OS (0 = first camera).
	FrontDevice int `json:"front_device"`
	RearDevice  int `json:"rear_device"`

	// === Resolution ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100

	// Mirror flips captured frames horizontally so the photo matches
	// what the user saw in the selfie preview.
	Mirror bool `json:"mirror"`

	// WarmupFrames are read and discarded after opening a device so
	// auto-exposure settles before the first grab.
	WarmupFrames int `json:"warmup_frames"`
}

// Limits for validation.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 60
	MaxWarmup    = 60
)

// DefaultConfig returns the recommended configuration for selfie capture.
// JPEG quality 80 matches what the attendance photos were saved with.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendMock,
		FrontDevice:  0,
		RearDevice:   1,
		Width:        640,
		Height:       480,
		Framerate:    30,
		Quality:      80,
		Mirror:       true,
		WarmupFrames: 5,
	}
}

// DeviceFor returns the device index configured for the given facing.
func (c *Config) DeviceFor(facing Facing) int {
	if facing == FacingRear {
		return c.RearDevice
	}
	return c.FrontDevice
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	switch c.Backend {
	case BackendMock, BackendWebcam:
	default:
		errors = append(errors, fmt.Sprintf("backend must be %s or %s", BackendMock, BackendWebcam))
	}

	if c.FrontDevice < 0 || c.RearDevice < 0 {
		errors = append(errors, "device indices must be non-negative")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.WarmupFrames < 0 || c.WarmupFrames > MaxWarmup {
		errors = append(errors, fmt.Sprintf("warmup_frames must be between 0 and %d", MaxWarmup))
	}

	return errors
}

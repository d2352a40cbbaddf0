// Package camera defines the camera device contract used by capture
// sessions, plus runtime-configurable capture settings.
package camera

import (
	"context"
	"time"
)

// Facing selects which physical camera to open.
type Facing string

const (
	// FacingFront is the user-facing camera (selfie).
	FacingFront Facing = "front"
	// FacingRear is the environment-facing camera.
	FacingRear Facing = "rear"
)

// Stream is a live handle returned by Acquire.
// Handles are owned by whoever acquired them until released.
type Stream interface {
	Facing() Facing
}

// Image is an encoded still frame.
type Image struct {
	Data       []byte    // Encoded bytes
	MIMEType   string    // e.g. "image/jpeg"
	Width      int       // Pixels
	Height     int       // Pixels
	CapturedAt time.Time // When the frame was grabbed
}

// Empty reports whether the image carries no data.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// Device is the camera hardware abstraction.
type Device interface {
	// Acquire opens a stream. It may block until the device is ready
	// or ctx is cancelled.
	Acquire(ctx context.Context, facing Facing) (Stream, error)

	// GrabFrame encodes the current frame of an active stream.
	GrabFrame(s Stream) (Image, error)

	// Release closes the stream. Releasing twice is a no-op.
	Release(s Stream)
}

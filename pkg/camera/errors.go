package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrPermissionDenied is returned when the user or OS refuses camera access.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrUnavailable is returned when no device exists for the requested facing.
	ErrUnavailable = errors.New("camera: device unavailable")

	// ErrBusy is returned when the device is held by another stream.
	ErrBusy = errors.New("camera: device busy")

	// ErrStreamClosed is returned when grabbing from a released stream.
	ErrStreamClosed = errors.New("camera: stream closed")

	// ErrEmptyFrame is returned when the device produced no image data.
	ErrEmptyFrame = errors.New("camera: empty frame")

	// ErrForeignStream is returned when a stream from another device is passed in.
	ErrForeignStream = errors.New("camera: stream not owned by this device")
)

// DeviceError wraps an error with device context.
type DeviceError struct {
	Device string
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera [%s] %s: %v", e.Device, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with device and operation context.
func WrapError(device, op string, err error) error {
	if err == nil {
		return nil
	}
	return &DeviceError{Device: device, Op: op, Err: err}
}

package liveness

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrCameraAcquisition covers permission denial, missing device and busy device.
	ErrCameraAcquisition = errors.New("liveness: camera acquisition failed")

	// ErrFrameGrab is returned when the final still could not be captured.
	ErrFrameGrab = errors.New("liveness: frame grab failed")

	// ErrFaceCheck is returned when the captured frame failed verification.
	ErrFaceCheck = errors.New("liveness: face check failed")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("liveness: session already started")

	// ErrClosed is returned when starting a session that already ended.
	ErrClosed = errors.New("liveness: session closed")

	// ErrNoCamera is returned when constructing a controller without a device.
	ErrNoCamera = errors.New("liveness: camera device required")
)

// SessionError wraps a failure with the session and state it happened in.
type SessionError struct {
	Session string
	State   State
	Err     error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("liveness [%s] in %s: %v", e.Session, e.State, e.Err)
	}
	return fmt.Sprintf("liveness in %s: %v", e.State, e.Err)
}

// Unwrap returns the underlying error.
func (e *SessionError) Unwrap() error {
	return e.Err
}

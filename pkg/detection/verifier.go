package detection

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-liveness/pkg/camera"
)

// Sentinel errors returned by FacePresence.
var (
	// ErrNoFace is returned when no face passes the thresholds.
	ErrNoFace = errors.New("detection: no face in frame")

	// ErrFaceTooSmall is returned when the best face is too far from the camera.
	ErrFaceTooSmall = errors.New("detection: face too small")

	// ErrFaceOffCenter is returned when the best face is outside the guide oval.
	ErrFaceOffCenter = errors.New("detection: face not centered")
)

// Verifier inspects a captured frame before it is handed back to the caller.
type Verifier interface {
	Verify(img camera.Image) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(img camera.Image) error

// Verify implements Verifier.
func (f VerifierFunc) Verify(img camera.Image) error { return f(img) }

// FacePresence requires one reasonably sized, roughly centered face.
type FacePresence struct {
	Detector      Detector
	MinConfidence float64 // Ignore detections below this score
	MinArea       float64 // Minimum normalized box area
	MaxOffset     float64 // Max distance of face center from frame center (normalized)
}

// NewFacePresence returns a verifier with thresholds tuned for a selfie
// held at arm's length inside the guide oval.
func NewFacePresence(d Detector) *FacePresence {
	return &FacePresence{
		Detector:      d,
		MinConfidence: 0.6,
		MinArea:       0.02,
		MaxOffset:     0.3,
	}
}

// Verify implements Verifier.
func (v *FacePresence) Verify(img camera.Image) error {
	if img.Empty() {
		return camera.ErrEmptyFrame
	}

	dets, err := v.Detector.Detect(img.Data)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	var usable []Detection
	for _, d := range dets {
		if d.Confidence >= v.MinConfidence {
			usable = append(usable, d)
		}
	}

	best := SelectBest(usable)
	if best == nil {
		return ErrNoFace
	}
	if best.Area() < v.MinArea {
		return fmt.Errorf("%w: area %.3f", ErrFaceTooSmall, best.Area())
	}

	cx, cy := best.Center()
	dx, dy := cx-0.5, cy-0.5
	if dx*dx+dy*dy > v.MaxOffset*v.MaxOffset {
		return fmt.Errorf("%w: center (%.2f, %.2f)", ErrFaceOffCenter, cx, cy)
	}

	return nil
}

// Verify FacePresence implements Verifier at compile time.
var _ Verifier = (*FacePresence)(nil)

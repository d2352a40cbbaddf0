package liveness

import (
	"fmt"
	"time"
)

// User-facing status messages.
const (
	MsgInitializing   = "Initializing Camera..."
	MsgPosition       = "Position your face in the frame"
	MsgHoldStill      = "Hold still"
	MsgGetReady       = "Get ready: %s"
	MsgHoldSmile      = "Hold your smile longer..."
	MsgCapturing      = "Success! Capturing..."
	MsgCameraFailed   = "Camera failed to start."
	MsgCaptureFailed  = "Capture failed."
	MsgCameraRequired = "Camera access is required. Please enable it in your device settings."
	MsgGrabFailed     = "Could not capture your photo. Please try again."
	MsgNoFace         = "No face detected. Please look at the camera and try again."
)

// Timeline offsets, measured from READY entry.
const (
	HoldStillAt         = 2500 * time.Millisecond
	GetReadyAt          = 4500 * time.Millisecond
	ChallengeAt         = 6500 * time.Millisecond
	HoldSmileAfter      = 1500 * time.Millisecond // relative to ChallengeAt
	CaptureAt           = 8500 * time.Millisecond
	DefaultCaptureDelay = 500 * time.Millisecond
)

// Step is one scheduled status update.
type Step struct {
	At        time.Duration // offset from the parent's fire time (timeline start for top-level steps)
	Message   string
	Indicator Indicator
	Then      []Step // scheduled when this step fires
}

// Script returns the prompt sequence for a challenge. CAPTURING entry at
// CaptureAt is not part of the script.
func Script(ch Challenge) []Step {
	challengeStep := Step{
		At:        ChallengeAt,
		Message:   ch.Instruction,
		Indicator: IndicatorCaution,
	}
	if ch.Kind == ChallengeSmile {
		challengeStep.Then = []Step{{
			At:        HoldSmileAfter,
			Message:   MsgHoldSmile,
			Indicator: IndicatorCaution,
		}}
	}

	return []Step{
		{At: 0, Message: MsgPosition, Indicator: IndicatorNeutral},
		{At: HoldStillAt, Message: MsgHoldStill, Indicator: IndicatorPositive},
		{At: GetReadyAt, Message: fmt.Sprintf(MsgGetReady, ch.Instruction), Indicator: IndicatorCaution},
		challengeStep,
	}
}

// StepCount returns the number of status updates a script produces,
// nested steps included.
func StepCount(steps []Step) int {
	n := 0
	for _, s := range steps {
		n += 1 + StepCount(s.Then)
	}
	return n
}

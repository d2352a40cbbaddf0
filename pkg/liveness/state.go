package liveness

import "time"

// State is the controller's position in the capture lifecycle.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateReady        State = "READY"
	StateCapturing    State = "CAPTURING"
	StateError        State = "ERROR"
)

// Indicator is the color of the face guide shown to the user.
type Indicator string

const (
	IndicatorNeutral  Indicator = "NEUTRAL"  // white
	IndicatorPositive Indicator = "POSITIVE" // green
	IndicatorCaution  Indicator = "CAUTION"  // yellow
	IndicatorActive   Indicator = "ACTIVE"   // indigo
)

// Outcome is how a session ended.
type Outcome string

const (
	OutcomePending   Outcome = "PENDING"
	OutcomeCaptured  Outcome = "CAPTURED"
	OutcomeCancelled Outcome = "CANCELLED"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeDisposed  Outcome = "DISPOSED"
)

// Update is emitted to the observer whenever the visible state changes.
type Update struct {
	Session   string        `json:"session,omitempty"`
	State     State         `json:"state"`
	Message   string        `json:"message"`
	Indicator Indicator     `json:"indicator"`
	Challenge Challenge     `json:"challenge"`
	Elapsed   time.Duration `json:"elapsed"` // since READY entry, 0 before
	Time      time.Time     `json:"time"`
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	Session    string    `json:"session,omitempty"`
	State      State     `json:"state"`
	Message    string    `json:"message"`
	Indicator  Indicator `json:"indicator"`
	Challenge  Challenge `json:"challenge"`
	Outcome    Outcome   `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StreamOpen bool      `json:"stream_open"`
}

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateError
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateInitializing:
		return to == StateReady || to == StateError
	case StateReady:
		return to == StateCapturing || to == StateError
	case StateCapturing:
		return to == StateError
	default:
		return false
	}
}

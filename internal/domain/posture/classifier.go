package posture

import (
	"math"
)

// ══════════════════════════════════════════════════════════════════════════════
// VERDICT
// ══════════════════════════════════════════════════════════════════════════════

// State is the binary posture classification.
type State string

const (
	StateCorrect   State = "correct"
	StateIncorrect State = "incorrect"
)

// String returns the string representation.
func (s State) String() string {
	return string(s)
}

// FailureReason names the first check that failed, in priority order.
type FailureReason string

const (
	// ReasonNone means the frame passed all checks.
	ReasonNone FailureReason = ""

	// ReasonHeadOffCenter means the nose drifted sideways from the shoulder midpoint.
	ReasonHeadOffCenter FailureReason = "head_off_center"

	// ReasonSlouching means the nose-to-shoulder angle left the upright band.
	ReasonSlouching FailureReason = "slouching"

	// ReasonShouldersTilted means the shoulders are not level.
	ReasonShouldersTilted FailureReason = "shoulders_tilted"
)

// Verdict is the classification result for one usable frame.
type Verdict struct {
	State  State
	Reason FailureReason
}

// IsCorrect reports whether the verdict passed all checks.
func (v Verdict) IsCorrect() bool {
	return v.State == StateCorrect
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASSIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Geometry thresholds. Tolerances scale with shoulder width so the rules are
// independent of how close the user sits to the camera.
const (
	// horizontalTolerance bounds |noseX - shoulderMidX| as a fraction of shoulder width.
	horizontalTolerance = 0.15

	// levelTolerance bounds |leftShoulderY - rightShoulderY| as a fraction of shoulder width.
	levelTolerance = 0.10

	// Upright band for the nose-to-shoulder-midpoint angle in degrees.
	// Straight up is -90 (y grows downward); the band allows 15 degrees of lean.
	uprightMinDeg = -105.0
	uprightMaxDeg = -75.0
)

// Sensitivity bounds for the confidence threshold mapping.
const (
	MinSensitivity = 1
	MaxSensitivity = 10
)

// ConfidenceThreshold maps the user's sensitivity setting (1..10) to the
// minimum keypoint confidence required for a frame to be usable. Higher
// sensitivity accepts lower-confidence keypoints, so more frames get a
// verdict: 0.46 at sensitivity 1 down to 0.10 at sensitivity 10.
func ConfidenceThreshold(sensitivity int) float64 {
	if sensitivity < MinSensitivity {
		sensitivity = MinSensitivity
	}
	if sensitivity > MaxSensitivity {
		sensitivity = MaxSensitivity
	}
	return 0.5 - float64(sensitivity)*0.04
}

// Classify evaluates a single frame against the posture rules.
//
// It returns ok=false when the frame is unusable: a required keypoint is
// missing or below the confidence threshold, or the shoulders coincide.
// The caller must then hold its last known state rather than flip.
func Classify(frame Frame, sensitivity int) (Verdict, bool) {
	threshold := ConfidenceThreshold(sensitivity)

	nose, ok := usable(frame, KeypointNose, threshold)
	if !ok {
		return Verdict{}, false
	}
	left, ok := usable(frame, KeypointLeftShoulder, threshold)
	if !ok {
		return Verdict{}, false
	}
	right, ok := usable(frame, KeypointRightShoulder, threshold)
	if !ok {
		return Verdict{}, false
	}

	shoulderWidth := math.Abs(right.X - left.X)
	if shoulderWidth == 0 {
		// Degenerate frame, cannot scale tolerances.
		return Verdict{}, false
	}

	midX := (left.X + right.X) / 2
	midY := (left.Y + right.Y) / 2

	// Checks run in priority order; the first failure names the reason.
	if math.Abs(nose.X-midX) > horizontalTolerance*shoulderWidth {
		return Verdict{State: StateIncorrect, Reason: ReasonHeadOffCenter}, true
	}

	angle := math.Atan2(nose.Y-midY, nose.X-midX) * 180 / math.Pi
	if angle < uprightMinDeg || angle > uprightMaxDeg {
		return Verdict{State: StateIncorrect, Reason: ReasonSlouching}, true
	}

	if math.Abs(left.Y-right.Y) > levelTolerance*shoulderWidth {
		return Verdict{State: StateIncorrect, Reason: ReasonShouldersTilted}, true
	}

	return Verdict{State: StateCorrect, Reason: ReasonNone}, true
}

// usable returns the named keypoint when present and confident enough.
func usable(frame Frame, name string, threshold float64) (Keypoint, bool) {
	kp, found := frame.Find(name)
	if !found || kp.Confidence < threshold {
		return Keypoint{}, false
	}
	return kp, true
}

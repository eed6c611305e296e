package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameAt builds a frame with the three required keypoints at full confidence.
func frameAt(noseX, noseY, leftX, leftY, rightX, rightY float64) Frame {
	return Frame{Keypoints: []Keypoint{
		{Name: KeypointNose, X: noseX, Y: noseY, Confidence: 0.9},
		{Name: KeypointLeftShoulder, X: leftX, Y: leftY, Confidence: 0.9},
		{Name: KeypointRightShoulder, X: rightX, Y: rightY, Confidence: 0.9},
	}}
}

func TestConfidenceThreshold(t *testing.T) {
	assert.InDelta(t, 0.46, ConfidenceThreshold(1), 1e-9)
	assert.InDelta(t, 0.30, ConfidenceThreshold(5), 1e-9)
	assert.InDelta(t, 0.10, ConfidenceThreshold(10), 1e-9)

	// Out-of-range sensitivities clamp to the bounds.
	assert.Equal(t, ConfidenceThreshold(1), ConfidenceThreshold(0))
	assert.Equal(t, ConfidenceThreshold(10), ConfidenceThreshold(99))
}

func TestClassify_CorrectPosture(t *testing.T) {
	// Nose centered above the shoulder midpoint, shoulders level.
	frame := frameAt(0.5, 0.3, 0.4, 0.5, 0.6, 0.5)

	verdict, ok := Classify(frame, 5)

	require.True(t, ok)
	assert.True(t, verdict.IsCorrect())
	assert.Equal(t, ReasonNone, verdict.Reason)
}

func TestClassify_FailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		frame  Frame
		reason FailureReason
	}{
		{
			// Nose 0.04 off center with tolerance 0.15*0.2 = 0.03.
			name:   "head off center",
			frame:  frameAt(0.54, 0.3, 0.4, 0.5, 0.6, 0.5),
			reason: ReasonHeadOffCenter,
		},
		{
			// Nose barely above the shoulders: angle ~ -71.6 degrees,
			// outside [-105, -75], while still horizontally centered.
			name:   "slouching",
			frame:  frameAt(0.52, 0.44, 0.4, 0.5, 0.6, 0.5),
			reason: ReasonSlouching,
		},
		{
			// Shoulder Y difference 0.03 with tolerance 0.10*0.2 = 0.02.
			name:   "shoulders tilted",
			frame:  frameAt(0.5, 0.3, 0.4, 0.47, 0.6, 0.5),
			reason: ReasonShouldersTilted,
		},
		{
			// Horizontal and level both fail: horizontal wins priority.
			name:   "horizontal check has priority",
			frame:  frameAt(0.55, 0.3, 0.4, 0.47, 0.6, 0.5),
			reason: ReasonHeadOffCenter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, ok := Classify(tt.frame, 5)
			require.True(t, ok)
			assert.Equal(t, StateIncorrect, verdict.State)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestClassify_NoVerdictOnUnusableFrames(t *testing.T) {
	t.Run("missing keypoint", func(t *testing.T) {
		frame := Frame{Keypoints: []Keypoint{
			{Name: KeypointNose, X: 0.5, Y: 0.3, Confidence: 0.9},
			{Name: KeypointLeftShoulder, X: 0.4, Y: 0.5, Confidence: 0.9},
		}}
		_, ok := Classify(frame, 5)
		assert.False(t, ok)
	})

	t.Run("low confidence keypoint", func(t *testing.T) {
		frame := frameAt(0.5, 0.3, 0.4, 0.5, 0.6, 0.5)
		frame.Keypoints[0].Confidence = 0.25 // below 0.30 at sensitivity 5
		_, ok := Classify(frame, 5)
		assert.False(t, ok)
	})

	t.Run("higher sensitivity accepts the same frame", func(t *testing.T) {
		frame := frameAt(0.5, 0.3, 0.4, 0.5, 0.6, 0.5)
		frame.Keypoints[0].Confidence = 0.25 // above 0.10 at sensitivity 10
		verdict, ok := Classify(frame, 10)
		require.True(t, ok)
		assert.True(t, verdict.IsCorrect())
	})

	t.Run("zero shoulder width", func(t *testing.T) {
		frame := frameAt(0.5, 0.3, 0.5, 0.5, 0.5, 0.5)
		_, ok := Classify(frame, 5)
		assert.False(t, ok)
	})
}

func TestClassify_IsPure(t *testing.T) {
	frame := frameAt(0.5, 0.3, 0.4, 0.5, 0.6, 0.5)

	first, ok1 := Classify(frame, 5)
	second, ok2 := Classify(frame, 5)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

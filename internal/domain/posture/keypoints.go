// Package posture implements the posture classification rules.
//
// The classifier is a pure function over a single pose-estimation frame.
// Keypoints arrive normalized to the video frame: x and y in [0,1] with y
// growing downward, each with a confidence score in [0,1]. The classifier
// never carries state between frames; holding the last verdict when a frame
// is unusable is the session tracker's job.
package posture

// Keypoint names used by the classifier. They follow the pose model's
// vocabulary so frames can be passed through without remapping.
const (
	KeypointNose          = "nose"
	KeypointLeftShoulder  = "left_shoulder"
	KeypointRightShoulder = "right_shoulder"
)

// Keypoint is a single detected body landmark in normalized coordinates.
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Frame is one pose-estimation result: the set of keypoints detected in a
// single camera frame.
type Frame struct {
	Keypoints []Keypoint `json:"keypoints"`
}

// Find returns the keypoint with the given name, if present.
func (f Frame) Find(name string) (Keypoint, bool) {
	for _, kp := range f.Keypoints {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}

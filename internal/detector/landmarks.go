// Package detector holds the hand landmark model shared by every frame source.
package detector

import "time"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// MaxHands is the number of hand slots tracked per frame.
const MaxHands = 2

// Point3D is a landmark position. X and Y are normalized to [0,1] relative
// to the video frame; Z is carried through but unused by the gesture core.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64               `json:"score,omitempty"`
}

// Frame is one tracker tick: zero or more hands and the time they were observed.
// Hand order is the tracker's positional index; identity is not stable across frames.
type Frame struct {
	Hands     []HandLandmarks `json:"hands"`
	Timestamp time.Time       `json:"-"`
}

// Clamp returns a copy of the frame holding at most MaxHands hands.
func (f Frame) Clamp() Frame {
	if len(f.Hands) <= MaxHands {
		return f
	}
	f.Hands = f.Hands[:MaxHands]
	return f
}

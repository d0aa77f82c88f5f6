// Package geometry holds the pure hand heuristics and coordinate conversions
// shared by the gesture core: pose classification, fingertip kinematics,
// screen mapping and A1-style cell references.
package geometry

import (
	"math"

	"github.com/ayusman/handsheet/internal/detector"
)

// Pose classification thresholds in normalized landmark units.
const (
	PinchThreshold      = 0.055
	OpenPalmThreshold   = 0.18
	ClosedFistThreshold = 0.11
)

// Distance returns the planar distance between two landmarks. Z is ignored.
func Distance(p, q detector.Point3D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// IsPinching reports whether the thumb tip and index tip are closer than threshold.
func IsPinching(h *detector.HandLandmarks, threshold float64) bool {
	if h == nil {
		return false
	}
	return Distance(h.Points[detector.ThumbTip], h.Points[detector.IndexTip]) < threshold
}

// PalmOpenness is the mean tip-to-knuckle distance over the four fingers.
func PalmOpenness(h *detector.HandLandmarks) float64 {
	if h == nil {
		return 0
	}
	pairs := [4][2]int{
		{detector.IndexTip, detector.IndexMCP},
		{detector.MiddleTip, detector.MiddleMCP},
		{detector.RingTip, detector.RingMCP},
		{detector.PinkyTip, detector.PinkyMCP},
	}
	var sum float64
	for _, p := range pairs {
		sum += Distance(h.Points[p[0]], h.Points[p[1]])
	}
	return sum / float64(len(pairs))
}

// IsOpenPalm reports an extended hand. Between ClosedFistThreshold and
// OpenPalmThreshold a hand is neither open nor a fist.
func IsOpenPalm(h *detector.HandLandmarks) bool {
	return h != nil && PalmOpenness(h) > OpenPalmThreshold
}

// IsClosedFist reports a curled hand.
func IsClosedFist(h *detector.HandLandmarks) bool {
	return h != nil && PalmOpenness(h) < ClosedFistThreshold
}

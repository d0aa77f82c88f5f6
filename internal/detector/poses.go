package detector

// Finger reach (tip-to-knuckle distance) for the preset poses.
const (
	openReach  = 0.25
	pinchReach = 0.14
	fistReach  = 0.05
)

// OpenPalmAt returns a right hand with all fingers extended and the index
// fingertip at (x, y).
func OpenPalmAt(x, y float64) HandLandmarks {
	return pose(x, y, openReach, Point3D{X: x + 0.12, Y: y + openReach*0.6})
}

// PinchAt returns a right hand with thumb and index tips touching at (x, y).
// The remaining fingers are half curled so the hand reads as neither open
// nor a fist.
func PinchAt(x, y float64) HandLandmarks {
	return pose(x, y, pinchReach, Point3D{X: x + 0.02, Y: y + 0.015})
}

// FistAt returns a right hand with all fingers curled and the index
// fingertip at (x, y).
func FistAt(x, y float64) HandLandmarks {
	return pose(x, y, fistReach, Point3D{X: x + 0.06, Y: y + 0.04})
}

// OpenPalmLandmarks returns an open palm centered in the frame.
func OpenPalmLandmarks() HandLandmarks {
	return OpenPalmAt(0.5, 0.35)
}

// pose lays out four fingers side by side, tips level with the index tip and
// knuckles reach below them.
func pose(x, y, reach float64, thumbTip Point3D) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	fingers := [4][4]int{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{RingMCP, RingPIP, RingDIP, RingTip},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	for i, f := range fingers {
		fx := x - 0.03*float64(i)
		mcp := Point3D{X: fx, Y: y + reach}
		tip := Point3D{X: fx, Y: y}
		h.Points[f[0]] = mcp
		h.Points[f[1]] = lerp(mcp, tip, 1.0/3)
		h.Points[f[2]] = lerp(mcp, tip, 2.0/3)
		h.Points[f[3]] = tip
	}

	wrist := Point3D{X: x - 0.045, Y: y + reach + 0.12}
	h.Points[Wrist] = wrist
	h.Points[ThumbCMC] = lerp(wrist, thumbTip, 0.25)
	h.Points[ThumbMCP] = lerp(wrist, thumbTip, 0.5)
	h.Points[ThumbIP] = lerp(wrist, thumbTip, 0.75)
	h.Points[ThumbTip] = thumbTip

	return h
}

func lerp(a, b Point3D, t float64) Point3D {
	return Point3D{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

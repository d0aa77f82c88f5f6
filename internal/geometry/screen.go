package geometry

import (
	"strconv"

	"github.com/ayusman/handsheet/internal/detector"
)

// ScreenPoint is a position in device pixels.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the pixel size of the surface the camera feed is shown on.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToScreen maps a normalized landmark to screen pixels. The feed is shown
// mirrored, so the horizontal axis is flipped.
func (v Viewport) ToScreen(p detector.Point3D) ScreenPoint {
	return ScreenPoint{
		X: v.Width - p.X*v.Width,
		Y: p.Y * v.Height,
	}
}

// Midline returns the vertical center of the viewport in pixels.
func (v Viewport) Midline() float64 {
	return v.Height / 2
}

// LocationKind tags what a screen point landed on.
type LocationKind int

const (
	LocationCell LocationKind = iota + 1
	LocationColumnHeader
	LocationRowHeader
)

func (k LocationKind) String() string {
	switch k {
	case LocationCell:
		return "cell"
	case LocationColumnHeader:
		return "column-header"
	case LocationRowHeader:
		return "row-header"
	}
	return "unknown"
}

// Location is the logical spreadsheet coordinate under a screen point.
// Column headers fill Col, row headers fill Label with the visible row label,
// cells fill both Row and Col.
type Location struct {
	Kind  LocationKind
	Row   int
	Col   int
	Label string
}

// Locator resolves a device point to a logical spreadsheet location,
// including frozen header panes. ok is false when nothing is there.
type Locator interface {
	Locate(p ScreenPoint) (loc Location, ok bool)
}

// LocateLandmark resolves the location under a landmark.
func LocateLandmark(l Locator, vp Viewport, p detector.Point3D) (Location, bool) {
	if l == nil {
		return Location{}, false
	}
	return l.Locate(vp.ToScreen(p))
}

// CellAt resolves the data cell under a landmark. Header hits and misses
// both report ok=false.
func CellAt(l Locator, vp Viewport, p detector.Point3D) (Cell, bool) {
	loc, ok := LocateLandmark(l, vp, p)
	if !ok || loc.Kind != LocationCell || loc.Row < 0 || loc.Col < 0 {
		return Cell{}, false
	}
	return Cell{Row: loc.Row, Col: loc.Col}, true
}

// RowFromLabel parses a visible row-header label into a zero-based row.
func RowFromLabel(label string) (int, bool) {
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

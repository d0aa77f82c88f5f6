package gesture

import (
	"strconv"
	"time"

	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/geometry"
)

// dwellTarget is what a pinching hand dwells on for delete.
type dwellTarget struct {
	kind geometry.LocationKind
	row  int
	col  int
}

func (t dwellTarget) id() string {
	switch t.kind {
	case geometry.LocationCell:
		return "cell:" + strconv.Itoa(t.row) + "," + strconv.Itoa(t.col)
	case geometry.LocationRowHeader:
		return "row:" + strconv.Itoa(t.row)
	case geometry.LocationColumnHeader:
		return "col:" + strconv.Itoa(t.col)
	}
	return ""
}

// dwell tracks the delete candidate of one pinch. Timers are deadlines on
// the frame clock.
type dwell struct {
	cand      dwellTarget
	candID    string
	candSince time.Time

	strayID    string
	straySince time.Time

	locked   dwellTarget
	lockedID string
}

func (d *dwell) reset() { *d = dwell{} }

// handState is the cross-frame state of one hand slot.
type handState struct {
	pinching bool
	// spent marks a pinch that already produced a copy; it cannot select
	// or copy again until released.
	spent bool

	lm9    geometry.ScreenPoint
	hasLM9 bool

	scrollUntil time.Time
	deleteUntil time.Time

	dwell dwell
}

// State is every piece of cross-frame gesture state, keyed by hand slot.
// The engine owns it and threads it through each frame.
type State struct {
	kin   *geometry.Kinematics
	hands [detector.MaxHands]handState

	copyArmed  bool
	pasteUntil time.Time
	seed       *geometry.Cell

	mergePrev    float64
	hasMergePrev bool
	zoomLast     float64
	hasZoomLast  bool

	scrollUntil time.Time
	axis        string
	axisUntil   time.Time
}

// NewState returns a clean state.
func NewState() *State {
	return &State{kin: geometry.NewKinematics()}
}

// PasteArmed reports whether a paste can be scored at now.
func (s *State) PasteArmed(now time.Time) bool {
	return now.Before(s.pasteUntil)
}

// CopyArmed reports whether a copy can be scored.
func (s *State) CopyArmed() bool { return s.copyArmed }

// DwellLocked reports the locked delete target id of a hand slot.
func (s *State) DwellLocked(slot int) (string, bool) {
	if slot < 0 || slot >= len(s.hands) {
		return "", false
	}
	id := s.hands[slot].dwell.lockedID
	return id, id != ""
}

func (s *State) disarmPaste() { s.pasteUntil = time.Time{} }

func (s *State) axisBlocks(axis string, now time.Time) bool {
	return s.axis != "" && s.axis != axis && now.Before(s.axisUntil)
}

// release clears everything tied to a pinch of slot.
func (s *State) release(slot int) {
	h := &s.hands[slot]
	h.pinching = false
	h.spent = false
	h.dwell.reset()
}

// vanish clears a slot whose hand left the frame.
func (s *State) vanish(slot int) {
	s.release(slot)
	s.hands[slot].hasLM9 = false
	s.kin.Forget(slot)
}

// Package target tracks what the user is pointing at so that spoken or
// gestured commands can refer to "this" or "here".
package target

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/geometry"
)

// DefaultFreshness is how long a pointing observation stays authoritative.
// It has to outlive hotword detection plus speech-to-text latency.
const DefaultFreshness = 1800 * time.Millisecond

// Kind tags a Target.
type Kind string

const (
	KindCell   Kind = "cell"
	KindColumn Kind = "column"
	KindRow    Kind = "row"
)

// Target is the current pointing reference. Exactly one of Cell, Column or
// Row is meaningful, according to Kind. Row is 1-based.
type Target struct {
	Kind   Kind      `json:"kind"`
	Cell   string    `json:"cell,omitempty"`
	Column string    `json:"column,omitempty"`
	Row    int       `json:"row,omitempty"`
	At     time.Time `json:"at"`
}

// Source is the slice of the spreadsheet the resolver reads.
type Source interface {
	geometry.Locator
	Selection() (geometry.Rect, bool)
	CountRows() int
	CountCols() int
}

// Config holds resolver options.
type Config struct {
	Viewport  geometry.Viewport
	Freshness time.Duration
	// Now is the clock used on read. It must be the same clock that stamps frames.
	Now func() time.Time
}

// Resolver holds the single current pointing target.
type Resolver struct {
	mu     sync.RWMutex
	source Source
	config Config
	last   *Target
}

// New creates a Resolver over source.
func New(source Source, config Config) *Resolver {
	if config.Freshness <= 0 {
		config.Freshness = DefaultFreshness
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Resolver{source: source, config: config}
}

// Update points the resolver at whatever is under the first hand's index
// fingertip. Anything that fails to resolve leaves the previous target in place.
// It reports whether the target was replaced.
func (r *Resolver) Update(hands []detector.HandLandmarks, at time.Time) bool {
	if len(hands) == 0 {
		return false
	}
	loc, ok := geometry.LocateLandmark(r.source, r.config.Viewport, hands[0].Points[detector.IndexTip])
	if !ok {
		return false
	}

	var t Target
	switch loc.Kind {
	case geometry.LocationColumnHeader:
		if loc.Col < 0 {
			return false
		}
		t = Target{Kind: KindColumn, Column: geometry.ColumnLetters(loc.Col)}
	case geometry.LocationRowHeader:
		row, ok := geometry.RowFromLabel(loc.Label)
		if !ok {
			return false
		}
		t = Target{Kind: KindRow, Row: row + 1}
	case geometry.LocationCell:
		if loc.Row < 0 || loc.Col < 0 {
			return false
		}
		t = Target{Kind: KindCell, Cell: geometry.Cell{Row: loc.Row, Col: loc.Col}.A1()}
	default:
		return false
	}
	t.At = at

	r.mu.Lock()
	r.last = &t
	r.mu.Unlock()
	return true
}

// Get returns the fresh pointing target, or a target derived from the
// current selection once the pointing target has gone stale.
func (r *Resolver) Get() (Target, bool) {
	now := r.config.Now()

	r.mu.RLock()
	last := r.last
	r.mu.RUnlock()

	if last != nil && now.Sub(last.At) < r.config.Freshness {
		return *last, true
	}
	return r.fromSelection(now)
}

// Fresh reports whether a pointing observation is currently authoritative.
func (r *Resolver) Fresh() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last != nil && r.config.Now().Sub(r.last.At) < r.config.Freshness
}

func (r *Resolver) fromSelection(now time.Time) (Target, bool) {
	if r.source == nil {
		return Target{}, false
	}
	sel, ok := r.source.Selection()
	if !ok {
		return Target{}, false
	}

	topLeft := Target{Kind: KindCell, Cell: sel.TopLeft().A1(), At: now}
	switch {
	case sel.Single():
		return topLeft, true
	case sel.C1 == sel.C2 && sel.R1 == 0 && sel.R2 >= r.source.CountRows()-1:
		return Target{Kind: KindColumn, Column: geometry.ColumnLetters(sel.C1), At: now}, true
	case sel.R1 == sel.R2 && sel.C1 == 0 && sel.C2 >= r.source.CountCols()-1:
		return Target{Kind: KindRow, Row: sel.R1 + 1, At: now}, true
	}
	return topLeft, true
}

// CellRef projects the target to an A1 cell. A column projects to its first
// row and a row to its column A.
func (r *Resolver) CellRef() (string, bool) {
	t, ok := r.Get()
	if !ok {
		return "", false
	}
	switch t.Kind {
	case KindCell:
		return t.Cell, true
	case KindColumn:
		return t.Column + "1", true
	case KindRow:
		return "A" + strconv.Itoa(t.Row), true
	}
	return "", false
}

// ColumnLetter projects the target to column letters. Rows have no column.
func (r *Resolver) ColumnLetter() (string, bool) {
	t, ok := r.Get()
	if !ok {
		return "", false
	}
	switch t.Kind {
	case KindColumn:
		return t.Column, true
	case KindCell:
		letters := strings.TrimRight(t.Cell, "0123456789")
		return letters, letters != ""
	}
	return "", false
}

// RowNumber projects the target to a 1-based row. Columns have no row.
func (r *Resolver) RowNumber() (int, bool) {
	t, ok := r.Get()
	if !ok {
		return 0, false
	}
	switch t.Kind {
	case KindRow:
		return t.Row, true
	case KindCell:
		digits := strings.TrimLeft(t.Cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
		n, err := strconv.Atoi(digits)
		return n, err == nil
	}
	return 0, false
}

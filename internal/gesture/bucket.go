// Package gesture scores every frame of hand landmarks against the
// spreadsheet gesture rules and arbitrates at most one committed command
// per frame.
package gesture

import (
	"sort"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/geometry"
)

// Gesture names. Zoom is scored under two names so that growing and
// shrinking never count as the same interpretation.
const (
	NameSelect   = "select"
	NameScroll   = "scroll"
	NameUndo     = "undo"
	NameRedo     = "redo"
	NameDelete   = "delete"
	NameMerge    = "merge"
	NameZoomIn   = "zoomIn"
	NameZoomOut  = "zoomOut"
	NameCopy     = "copy"
	NamePaste    = "paste"
	NameAutofill = "autofill"
)

// Candidate is one scored interpretation of a frame.
type Candidate struct {
	Name    string               `json:"name"`
	Score   float64              `json:"score"`
	Command command.Command      `json:"command"`
	Hand    int                  `json:"hand"`
	Point   geometry.ScreenPoint `json:"point"`
	// Locked marks a candidate aimed at a dwell-locked target. It may commit
	// inside a cooldown that a select started.
	Locked bool `json:"locked,omitempty"`
}

// Bucket collects the candidates posted during one frame, keeping only the
// highest-scoring candidate per gesture name.
type Bucket struct {
	candidates []Candidate
}

// Rank posts a candidate. It replaces an earlier candidate of the same name
// only when it scores strictly higher.
func (b *Bucket) Rank(c Candidate) {
	for i, old := range b.candidates {
		if old.Name == c.Name {
			if c.Score > old.Score {
				b.candidates[i] = c
			}
			return
		}
	}
	b.candidates = append(b.candidates, c)
}

// Drop removes the candidate with the given name if hand posted it.
func (b *Bucket) Drop(name string, hand int) {
	kept := b.candidates[:0]
	for _, c := range b.candidates {
		if c.Name == name && c.Hand == hand {
			continue
		}
		kept = append(kept, c)
	}
	b.candidates = kept
}

// Len returns the number of candidates.
func (b *Bucket) Len() int { return len(b.candidates) }

// Candidates returns a copy of the candidates in posting order.
func (b *Bucket) Candidates() []Candidate {
	return append([]Candidate(nil), b.candidates...)
}

// Sorted returns the candidates by descending score. Ties keep posting order.
func (b *Bucket) Sorted() []Candidate {
	out := b.Candidates()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Reset empties the bucket.
func (b *Bucket) Reset() {
	b.candidates = b.candidates[:0]
}

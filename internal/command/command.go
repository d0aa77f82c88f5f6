// Package command defines the spreadsheet command record shared by gesture
// and speech input, the deictic normalizer, and the dispatch pipeline that
// every command passes through exactly once.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ayusman/handsheet/internal/geometry"
)

// Action names.
const (
	ActionSelect   = "select"
	ActionScroll   = "scroll"
	ActionUndo     = "undo"
	ActionRedo     = "redo"
	ActionDelete   = "delete"
	ActionMerge    = "merge"
	ActionZoom     = "zoom"
	ActionCopy     = "copy"
	ActionPaste    = "paste"
	ActionAutofill = "autofill"
	ActionWrite    = "write"
	ActionSort     = "sort"
	ActionSum      = "sum"
	ActionAverage  = "average"
)

// Sources.
const (
	SourceGesture = "gesture"
	SourceSpeech  = "speech"
)

// Command is a tagged action with parameters. Unused fields stay zero.
type Command struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`

	Range  string    `json:"range,omitempty"`
	At     string    `json:"at,omitempty"`
	Column string    `json:"column,omitempty"`
	Row    int       `json:"row,omitempty"`
	Col    ColumnRef `json:"col,omitempty"`

	Delta     int `json:"delta,omitempty"`
	DeltaCols int `json:"deltaCols,omitempty"`

	Direction string  `json:"direction,omitempty"`
	Step      float64 `json:"step,omitempty"`
	Pattern   string  `json:"pattern,omitempty"`
	Value     string  `json:"value,omitempty"`

	Source  string  `json:"source,omitempty"`
	Gesture string  `json:"gesture,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Mutating reports whether a successful run of the action changes grid
// contents and should be autosaved.
func (c Command) Mutating() bool {
	switch c.Action {
	case ActionDelete, ActionMerge, ActionCopy, ActionPaste, ActionAutofill, ActionWrite, ActionSort:
		return true
	}
	return false
}

func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Action)
	for _, kv := range [][2]string{
		{"range", c.Range}, {"at", c.At}, {"column", c.Column}, {"direction", c.Direction}, {"pattern", c.Pattern},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, " %s=%s", kv[0], kv[1])
		}
	}
	return b.String()
}

// ColumnRef is a column given either as letters or as a 1-based number. It
// is stored as letters.
type ColumnRef string

// UnmarshalJSON accepts "C", "c" or 3.
func (r *ColumnRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ColumnRef(strings.ToUpper(strings.TrimSpace(s)))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("col must be letters or a number: %w", err)
	}
	i, err := strconv.Atoi(n.String())
	if err != nil || i < 1 {
		return fmt.Errorf("col must be a positive integer, got %s", n)
	}
	*r = ColumnRef(geometry.ColumnLetters(i - 1))
	return nil
}

// Index returns the zero-based column, or -1.
func (r ColumnRef) Index() int {
	return geometry.ColumnIndex(string(r))
}

// ErrNoExecutor is reported when a pipeline has nothing to run commands with.
var ErrNoExecutor = errors.New("no executor configured")

// ErrExecutorPanic wraps a panic recovered while executing a command.
var ErrExecutorPanic = errors.New("executor panicked")

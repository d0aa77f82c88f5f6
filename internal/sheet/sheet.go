// Package sheet defines the spreadsheet collaborator the gesture core drives,
// plus Grid, an in-memory implementation with a pixel layout.
package sheet

import (
	"errors"

	"github.com/ayusman/handsheet/internal/geometry"
)

// Errors returned by Sheet operations.
var (
	ErrMergeFailed      = errors.New("merge failed")
	ErrColumnOutOfRange = errors.New("column out of range")
)

// Change is a single cell write.
type Change struct {
	Row   int
	Col   int
	Value string
}

// History is the undo/redo capability.
type History interface {
	CanUndo() bool
	CanRedo() bool
	Undo()
	Redo()
}

// Merger is the merge-cells capability.
type Merger interface {
	MergeSelection() error
}

// Sheet is everything the gesture core and executor need from a spreadsheet.
type Sheet interface {
	geometry.Locator

	Value(row, col int) string
	// SetValues applies all changes as one undoable edit. Out of range
	// changes are ignored.
	SetValues(changes []Change)

	Selection() (geometry.Rect, bool)
	Select(r geometry.Rect)

	CountRows() int
	CountCols() int

	// ScrollTo brings (row, col) to the center of the visible area.
	ScrollTo(row, col int)
	// SetScale applies the visual zoom factor.
	SetScale(factor float64)

	// SortColumn reorders rows by the given column.
	SortColumn(col int, descending bool) error

	// History returns nil when undo/redo is disabled.
	History() History
	// Merger returns nil when merging is unavailable.
	Merger() Merger

	EditorOpen() bool
	CloseEditor()

	// Data returns a copy of the full grid contents.
	Data() [][]string
}

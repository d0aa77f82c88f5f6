// Package executor turns normalized commands into spreadsheet operations.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/geometry"
	"github.com/ayusman/handsheet/internal/sheet"
)

// Errors returned by Execute.
var (
	ErrMalformedRange        = errors.New("malformed range")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrHistoryEmpty          = errors.New("nothing to undo or redo")
	ErrNoCopyBuffer          = errors.New("nothing has been copied")
	ErrUnsupportedAction     = errors.New("unsupported action")
	ErrMissingField          = errors.New("missing field")
	ErrInvalidArgument       = errors.New("invalid argument")
)

// Zoom limits.
const (
	MinZoom         = 0.5
	MaxZoom         = 2.0
	DefaultZoomStep = 0.1
)

// Clipboard is the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard writes through to the OS clipboard.
var SystemClipboard Clipboard = systemClipboard{}

// Buffer is the in-memory copy buffer.
type Buffer struct {
	Values [][]string
	Source geometry.Rect
}

// Executor runs commands against a sheet. It is safe for concurrent use,
// though callers are expected to serialize through command.Pipeline.
type Executor struct {
	mu     sync.Mutex
	sheet  sheet.Sheet
	clip   Clipboard
	buffer *Buffer
	zoom   float64
}

// New creates an Executor. clip may be nil to skip the system clipboard.
func New(s sheet.Sheet, clip Clipboard) *Executor {
	return &Executor{sheet: s, clip: clip, zoom: 1}
}

// Zoom returns the current zoom factor.
func (e *Executor) Zoom() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoom
}

// Buffer returns a copy of the copy buffer.
func (e *Executor) Buffer() (Buffer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer == nil {
		return Buffer{}, false
	}
	b := Buffer{Source: e.buffer.Source, Values: make([][]string, len(e.buffer.Values))}
	for i, row := range e.buffer.Values {
		b.Values[i] = append([]string(nil), row...)
	}
	return b, true
}

// Execute implements command.Executor.
func (e *Executor) Execute(ctx context.Context, cmd command.Command) (command.Result, error) {
	if err := ctx.Err(); err != nil {
		return command.Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if cmd.Mutating() && e.sheet.EditorOpen() {
		e.sheet.CloseEditor()
	}

	switch cmd.Action {
	case command.ActionSelect:
		return e.selectRange(cmd)
	case command.ActionScroll:
		return e.scroll(cmd)
	case command.ActionUndo:
		return command.Result{}, e.history(true)
	case command.ActionRedo:
		return command.Result{}, e.history(false)
	case command.ActionDelete:
		return e.fill(cmd.Range, "")
	case command.ActionWrite:
		return e.fill(cmd.Range, cmd.Value)
	case command.ActionMerge:
		return e.merge(cmd)
	case command.ActionZoom:
		return command.Result{}, e.setZoom(cmd)
	case command.ActionCopy:
		return e.copy(cmd)
	case command.ActionPaste:
		return e.paste(cmd)
	case command.ActionAutofill:
		return e.autofill(cmd)
	case command.ActionSort:
		return command.Result{}, e.sort(cmd)
	case command.ActionSum, command.ActionAverage:
		return e.aggregate(cmd)
	}
	return command.Result{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, cmd.Action)
}

// rect parses ref and checks that it touches the sheet.
func (e *Executor) rect(field, ref string) (geometry.Rect, error) {
	if strings.TrimSpace(ref) == "" {
		return geometry.Rect{}, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	r, err := geometry.ParseRange(ref, e.sheet.CountRows())
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("%w: %w", ErrMalformedRange, err)
	}
	if r.R1 < 0 || r.C1 < 0 || r.R1 >= e.sheet.CountRows() || r.C1 >= e.sheet.CountCols() {
		return geometry.Rect{}, fmt.Errorf("%w: %s is outside the sheet", ErrMalformedRange, ref)
	}
	return e.clipToSheet(r), nil
}

func (e *Executor) clipToSheet(r geometry.Rect) geometry.Rect {
	r.R2 = min(r.R2, e.sheet.CountRows()-1)
	r.C2 = min(r.C2, e.sheet.CountCols()-1)
	return r
}

func (e *Executor) selectRange(cmd command.Command) (command.Result, error) {
	r, err := e.rect("range", cmd.Range)
	if err != nil {
		return command.Result{}, err
	}
	e.sheet.Select(r)
	return command.Result{Range: r.A1()}, nil
}

func (e *Executor) scroll(cmd command.Command) (command.Result, error) {
	anchor := geometry.Cell{}
	if sel, ok := e.sheet.Selection(); ok {
		anchor = sel.TopLeft()
	}

	col := cmd.Col
	if col == "" && cmd.Column != "" && !command.IsDeictic(cmd.Column) {
		col = command.ColumnRef(strings.ToUpper(strings.TrimSpace(cmd.Column)))
	}

	var dest geometry.Cell
	switch {
	case cmd.At != "":
		r, err := e.rect("at", cmd.At)
		if err != nil {
			return command.Result{}, err
		}
		dest = r.TopLeft()
	case cmd.Row > 0 || col != "":
		dest = anchor
		if cmd.Row > 0 {
			dest.Row = cmd.Row - 1
		}
		if col != "" {
			if dest.Col = col.Index(); dest.Col < 0 {
				return command.Result{}, fmt.Errorf("%w: column %q", ErrMalformedRange, col)
			}
		}
	case cmd.Delta != 0 || cmd.DeltaCols != 0:
		dest = geometry.Cell{Row: anchor.Row + cmd.Delta, Col: anchor.Col + cmd.DeltaCols}
	default:
		return command.Result{}, fmt.Errorf("%w: scroll needs at, row, col or delta", ErrMissingField)
	}

	dest.Row = clamp(dest.Row, 0, e.sheet.CountRows()-1)
	dest.Col = clamp(dest.Col, 0, e.sheet.CountCols()-1)
	e.sheet.ScrollTo(dest.Row, dest.Col)
	r := geometry.RectOf(dest, dest)
	e.sheet.Select(r)
	return command.Result{Range: r.A1()}, nil
}

func (e *Executor) history(undo bool) error {
	h := e.sheet.History()
	if h == nil {
		return fmt.Errorf("%w: undo history", ErrCapabilityUnavailable)
	}
	if undo {
		if !h.CanUndo() {
			return ErrHistoryEmpty
		}
		h.Undo()
		return nil
	}
	if !h.CanRedo() {
		return ErrHistoryEmpty
	}
	h.Redo()
	return nil
}

func (e *Executor) fill(ref, value string) (command.Result, error) {
	r, err := e.rect("range", ref)
	if err != nil {
		return command.Result{}, err
	}
	changes := make([]sheet.Change, 0, r.Height()*r.Width())
	for row := r.R1; row <= r.R2; row++ {
		for col := r.C1; col <= r.C2; col++ {
			changes = append(changes, sheet.Change{Row: row, Col: col, Value: value})
		}
	}
	e.sheet.SetValues(changes)
	return command.Result{Range: r.A1()}, nil
}

func (e *Executor) merge(cmd command.Command) (command.Result, error) {
	m := e.sheet.Merger()
	if m == nil {
		log.Printf("[executor] merge %s skipped: merge cells is disabled", cmd.Range)
		return command.Result{}, fmt.Errorf("%w: merge cells", ErrCapabilityUnavailable)
	}
	r, err := e.rect("range", cmd.Range)
	if err != nil {
		return command.Result{}, err
	}
	e.sheet.Select(r)
	if err := m.MergeSelection(); err != nil {
		return command.Result{}, fmt.Errorf("merge %s: %w", r.A1(), err)
	}
	return command.Result{Range: r.A1()}, nil
}

func (e *Executor) setZoom(cmd command.Command) error {
	step := cmd.Step
	if step <= 0 {
		step = DefaultZoomStep
	}
	switch cmd.Direction {
	case "in":
		e.zoom += step
	case "out":
		e.zoom -= step
	case "reset":
		e.zoom = 1
	case "":
		return fmt.Errorf("%w: zoom direction", ErrMissingField)
	default:
		return fmt.Errorf("%w: zoom direction %q", ErrInvalidArgument, cmd.Direction)
	}
	e.zoom = math.Max(MinZoom, math.Min(MaxZoom, e.zoom))
	e.sheet.SetScale(e.zoom)
	return nil
}

func (e *Executor) copy(cmd command.Command) (command.Result, error) {
	var r geometry.Rect
	if strings.TrimSpace(cmd.Range) != "" {
		var err error
		if r, err = e.rect("range", cmd.Range); err != nil {
			return command.Result{}, err
		}
	} else {
		sel, ok := e.sheet.Selection()
		if !ok {
			return command.Result{}, fmt.Errorf("%w: range (no selection)", ErrMissingField)
		}
		r = sel
	}

	values := make([][]string, 0, r.Height())
	lines := make([]string, 0, r.Height())
	for row := r.R1; row <= r.R2; row++ {
		line := make([]string, 0, r.Width())
		for col := r.C1; col <= r.C2; col++ {
			line = append(line, e.sheet.Value(row, col))
		}
		values = append(values, line)
		lines = append(lines, strings.Join(line, "\t"))
	}
	e.buffer = &Buffer{Values: values, Source: r}

	if e.clip != nil {
		if err := e.clip.WriteAll(strings.Join(lines, "\n")); err != nil {
			log.Printf("[executor] clipboard write failed: %v", err)
		}
	}
	return command.Result{Range: r.A1()}, nil
}

func (e *Executor) paste(cmd command.Command) (command.Result, error) {
	if e.buffer == nil || len(e.buffer.Values) == 0 {
		return command.Result{}, ErrNoCopyBuffer
	}

	var dest geometry.Cell
	switch {
	case strings.TrimSpace(cmd.At) != "":
		r, err := e.rect("at", cmd.At)
		if err != nil {
			return command.Result{}, err
		}
		dest = r.TopLeft()
	default:
		if sel, ok := e.sheet.Selection(); ok {
			dest = sel.TopLeft()
		}
	}

	var changes []sheet.Change
	width := 0
	for i, row := range e.buffer.Values {
		width = max(width, len(row))
		for j, v := range row {
			changes = append(changes, sheet.Change{Row: dest.Row + i, Col: dest.Col + j, Value: v})
		}
	}
	e.sheet.SetValues(changes)

	r := e.clipToSheet(geometry.Rect{
		R1: dest.Row, C1: dest.Col,
		R2: dest.Row + len(e.buffer.Values) - 1, C2: dest.Col + max(width, 1) - 1,
	})
	e.sheet.Select(r)
	e.buffer = nil
	return command.Result{Range: r.A1()}, nil
}

func (e *Executor) autofill(cmd command.Command) (command.Result, error) {
	r, err := e.rect("range", cmd.Range)
	if err != nil {
		return command.Result{}, err
	}

	cells := make([]geometry.Cell, 0, r.Height()*r.Width())
	for row := r.R1; row <= r.R2; row++ {
		for col := r.C1; col <= r.C2; col++ {
			cells = append(cells, geometry.Cell{Row: row, Col: col})
		}
	}
	seed := e.sheet.Value(r.R1, r.C1)

	var values []string
	switch cmd.Pattern {
	case "series":
		if r.Height() > 1 && r.Width() > 1 {
			return command.Result{}, fmt.Errorf("%w: series needs a single row or column, got %s", ErrInvalidArgument, r.A1())
		}
		values = e.series(cells)
	case "", "repeat":
	default:
		return command.Result{}, fmt.Errorf("%w: autofill pattern %q", ErrInvalidArgument, cmd.Pattern)
	}
	if values == nil {
		values = make([]string, len(cells))
		for i := range values {
			values[i] = seed
		}
	}

	changes := make([]sheet.Change, len(cells))
	for i, c := range cells {
		changes[i] = sheet.Change{Row: c.Row, Col: c.Col, Value: values[i]}
	}
	e.sheet.SetValues(changes)
	return command.Result{Range: r.A1()}, nil
}

// series extends the arithmetic progression given by the first two cells.
// It returns nil when they are not both numeric.
func (e *Executor) series(cells []geometry.Cell) []string {
	if len(cells) < 2 {
		return nil
	}
	v0, ok0 := number(e.sheet.Value(cells[0].Row, cells[0].Col))
	v1, ok1 := number(e.sheet.Value(cells[1].Row, cells[1].Col))
	if !ok0 || !ok1 {
		log.Printf("[executor] autofill series seed is not numeric, repeating %q", e.sheet.Value(cells[0].Row, cells[0].Col))
		return nil
	}
	step := v1 - v0
	out := make([]string, len(cells))
	for i := range cells {
		v := math.Round((v0+float64(i)*step)*1e9) / 1e9
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

func (e *Executor) sort(cmd command.Command) error {
	ref := strings.ToUpper(strings.TrimSpace(cmd.Column))
	if ref == "" {
		return fmt.Errorf("%w: column", ErrMissingField)
	}
	col := geometry.ColumnIndex(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		col = n - 1
	}
	if col < 0 {
		return fmt.Errorf("%w: column %q", ErrMalformedRange, cmd.Column)
	}

	var desc bool
	switch cmd.Direction {
	case "", "asc", "ascending":
	case "desc", "descending":
		desc = true
	default:
		return fmt.Errorf("%w: sort direction %q", ErrInvalidArgument, cmd.Direction)
	}
	return e.sheet.SortColumn(col, desc)
}

func (e *Executor) aggregate(cmd command.Command) (command.Result, error) {
	r, err := e.rect("range", cmd.Range)
	if err != nil {
		return command.Result{}, err
	}
	var sum float64
	var n int
	for row := r.R1; row <= r.R2; row++ {
		for col := r.C1; col <= r.C2; col++ {
			if v, ok := number(e.sheet.Value(row, col)); ok {
				sum += v
				n++
			}
		}
	}
	res := command.Result{Range: r.A1(), HasValue: true, Value: sum}
	if cmd.Action == command.ActionAverage {
		if n == 0 {
			return command.Result{}, fmt.Errorf("%w: no numeric values in %s", ErrInvalidArgument, r.A1())
		}
		res.Value = sum / float64(n)
	}
	return res, nil
}

func number(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

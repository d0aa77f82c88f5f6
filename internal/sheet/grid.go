package sheet

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ayusman/handsheet/internal/geometry"
)

// Layout places the grid on screen, in unscaled pixels.
type Layout struct {
	Origin       geometry.ScreenPoint
	HeaderHeight float64
	HeaderWidth  float64
	RowHeight    float64
	ColWidth     float64
}

// DefaultLayout returns the layout used by the bundled web view.
func DefaultLayout() Layout {
	return Layout{
		Origin:       geometry.ScreenPoint{X: 40, Y: 120},
		HeaderHeight: 24,
		HeaderWidth:  50,
		RowHeight:    23,
		ColWidth:     80,
	}
}

// Config holds options for a Grid.
type Config struct {
	Rows        int
	Cols        int
	VisibleRows int
	VisibleCols int
	Layout      Layout
	History     bool
	Merge       bool
}

// DefaultConfig returns a 100x26 grid with undo and merge enabled.
func DefaultConfig() Config {
	return Config{
		Rows:        100,
		Cols:        26,
		VisibleRows: 20,
		VisibleCols: 12,
		Layout:      DefaultLayout(),
		History:     true,
		Merge:       true,
	}
}

type edit struct {
	row, col int
	old, new string
}

// Grid is an in-memory Sheet. Row and column headers are frozen; the data
// area scrolls by whole rows and columns.
type Grid struct {
	mu sync.RWMutex

	config    Config
	cells     [][]string
	selection geometry.Rect
	selected  bool
	scrollRow int
	scrollCol int
	scale     float64

	history bool
	undo    [][]edit
	redo    [][]edit

	merges []geometry.Rect

	editorOpen bool
	editorCell geometry.Cell
}

// New creates an empty grid.
func New(config Config) *Grid {
	def := DefaultConfig()
	if config.Rows <= 0 {
		config.Rows = def.Rows
	}
	if config.Cols <= 0 {
		config.Cols = def.Cols
	}
	if config.VisibleRows <= 0 {
		config.VisibleRows = def.VisibleRows
	}
	if config.VisibleCols <= 0 {
		config.VisibleCols = def.VisibleCols
	}
	if config.Layout.RowHeight <= 0 || config.Layout.ColWidth <= 0 {
		config.Layout = def.Layout
	}

	cells := make([][]string, config.Rows)
	for i := range cells {
		cells[i] = make([]string, config.Cols)
	}

	return &Grid{
		config:  config,
		cells:   cells,
		scale:   1,
		history: config.History,
	}
}

// Load replaces the grid contents and clears history. Rows and columns beyond
// the configured size grow the grid.
func (g *Grid) Load(data [][]string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rows, cols := g.config.Rows, g.config.Cols
	rows = max(rows, len(data))
	for _, r := range data {
		cols = max(cols, len(r))
	}

	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, cols)
		if i < len(data) {
			copy(cells[i], data[i])
		}
	}

	g.cells = cells
	g.undo = nil
	g.redo = nil
	g.merges = nil
	g.selected = false
}

// Locate implements geometry.Locator against the grid's pixel layout.
func (g *Grid) Locate(p geometry.ScreenPoint) (geometry.Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	l := g.config.Layout
	x := (p.X - l.Origin.X) / g.scale
	y := (p.Y - l.Origin.Y) / g.scale
	if x < 0 || y < 0 {
		return geometry.Location{}, false
	}

	inColHeader := y < l.HeaderHeight
	inRowHeader := x < l.HeaderWidth
	if inColHeader && inRowHeader {
		return geometry.Location{}, false
	}

	vr := int((y - l.HeaderHeight) / l.RowHeight)
	vc := int((x - l.HeaderWidth) / l.ColWidth)
	row := g.scrollRow + vr
	col := g.scrollCol + vc

	switch {
	case inColHeader:
		if vc >= g.config.VisibleCols || col >= g.countCols() {
			return geometry.Location{}, false
		}
		return geometry.Location{Kind: geometry.LocationColumnHeader, Row: -1, Col: col, Label: geometry.ColumnLetters(col)}, true
	case inRowHeader:
		if vr >= g.config.VisibleRows || row >= g.countRows() {
			return geometry.Location{}, false
		}
		return geometry.Location{Kind: geometry.LocationRowHeader, Row: -1, Col: -1, Label: strconv.Itoa(row + 1)}, true
	}

	if vr >= g.config.VisibleRows || vc >= g.config.VisibleCols || row >= g.countRows() || col >= g.countCols() {
		return geometry.Location{}, false
	}
	return geometry.Location{Kind: geometry.LocationCell, Row: row, Col: col}, true
}

// CellCenter returns the screen position of a visible cell's center. It is
// the inverse of Locate and is used to synthesize pointing input.
func (g *Grid) CellCenter(c geometry.Cell) geometry.ScreenPoint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	l := g.config.Layout
	return geometry.ScreenPoint{
		X: l.Origin.X + g.scale*(l.HeaderWidth+(float64(c.Col-g.scrollCol)+0.5)*l.ColWidth),
		Y: l.Origin.Y + g.scale*(l.HeaderHeight+(float64(c.Row-g.scrollRow)+0.5)*l.RowHeight),
	}
}

// Value returns the value at (row, col), or "" when out of range.
func (g *Grid) Value(row, col int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.inRange(row, col) {
		return ""
	}
	return g.cells[row][col]
}

// SetValue writes a single cell as one undoable edit.
func (g *Grid) SetValue(row, col int, value string) {
	g.SetValues([]Change{{Row: row, Col: col, Value: value}})
}

// SetValues implements Sheet.
func (g *Grid) SetValues(changes []Change) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply(changes)
}

func (g *Grid) apply(changes []Change) {
	var batch []edit
	for _, c := range changes {
		if !g.inRange(c.Row, c.Col) {
			continue
		}
		old := g.cells[c.Row][c.Col]
		if old == c.Value {
			continue
		}
		g.cells[c.Row][c.Col] = c.Value
		batch = append(batch, edit{row: c.Row, col: c.Col, old: old, new: c.Value})
	}
	if len(batch) == 0 || !g.history {
		return
	}
	g.undo = append(g.undo, batch)
	g.redo = nil
}

// Selection implements Sheet.
func (g *Grid) Selection() (geometry.Rect, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.selection, g.selected
}

// Select implements Sheet. The rectangle is clipped to the grid.
func (g *Grid) Select(r geometry.Rect) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r.R1 = clamp(r.R1, 0, g.countRows()-1)
	r.R2 = clamp(r.R2, 0, g.countRows()-1)
	r.C1 = clamp(r.C1, 0, g.countCols()-1)
	r.C2 = clamp(r.C2, 0, g.countCols()-1)
	g.selection = r
	g.selected = true
}

// Deselect clears the selection.
func (g *Grid) Deselect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selected = false
}

// CountRows implements Sheet.
func (g *Grid) CountRows() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.countRows()
}

// CountCols implements Sheet.
func (g *Grid) CountCols() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.countCols()
}

func (g *Grid) countRows() int { return len(g.cells) }

func (g *Grid) countCols() int {
	if len(g.cells) == 0 {
		return 0
	}
	return len(g.cells[0])
}

func (g *Grid) inRange(row, col int) bool {
	return row >= 0 && col >= 0 && row < g.countRows() && col < g.countCols()
}

// ScrollTo implements Sheet.
func (g *Grid) ScrollTo(row, col int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollRow = clamp(row-g.config.VisibleRows/2, 0, max(0, g.countRows()-g.config.VisibleRows))
	g.scrollCol = clamp(col-g.config.VisibleCols/2, 0, max(0, g.countCols()-g.config.VisibleCols))
}

// ScrollOffset returns the first visible row and column.
func (g *Grid) ScrollOffset() (row, col int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scrollRow, g.scrollCol
}

// SetScale implements Sheet.
func (g *Grid) SetScale(factor float64) {
	if factor <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = factor
}

// Scale returns the current zoom factor.
func (g *Grid) Scale() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale
}

// SortColumn implements Sheet. Numbers sort before text and empty cells
// always sink to the bottom.
func (g *Grid) SortColumn(col int, descending bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if col < 0 || col >= g.countCols() {
		return ErrColumnOutOfRange
	}

	order := make([]int, g.countRows())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lessCell(g.cells[order[a]][col], g.cells[order[b]][col], descending)
	})

	var changes []Change
	for dst, src := range order {
		if dst == src {
			continue
		}
		for c := 0; c < g.countCols(); c++ {
			changes = append(changes, Change{Row: dst, Col: c, Value: g.cells[src][c]})
		}
	}
	g.apply(changes)
	return nil
}

func lessCell(a, b string, descending bool) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return a != "" && b == ""
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if descending {
			return fa > fb
		}
		return fa < fb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	if descending {
		return strings.ToLower(a) > strings.ToLower(b)
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

// History implements Sheet.
func (g *Grid) History() History {
	if !g.config.History {
		return nil
	}
	return gridHistory{g}
}

// Merger implements Sheet.
func (g *Grid) Merger() Merger {
	if !g.config.Merge {
		return nil
	}
	return gridMerger{g}
}

// Merges returns the merged regions.
func (g *Grid) Merges() []geometry.Rect {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]geometry.Rect(nil), g.merges...)
}

// OpenEditor starts editing a cell.
func (g *Grid) OpenEditor(c geometry.Cell) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.editorOpen = true
	g.editorCell = c
}

// EditorOpen implements Sheet.
func (g *Grid) EditorOpen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.editorOpen
}

// CloseEditor implements Sheet.
func (g *Grid) CloseEditor() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.editorOpen = false
}

// Data implements Sheet.
func (g *Grid) Data() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([][]string, len(g.cells))
	for i, row := range g.cells {
		out[i] = append([]string(nil), row...)
	}
	return out
}

type gridHistory struct{ g *Grid }

func (h gridHistory) CanUndo() bool {
	h.g.mu.RLock()
	defer h.g.mu.RUnlock()
	return len(h.g.undo) > 0
}

func (h gridHistory) CanRedo() bool {
	h.g.mu.RLock()
	defer h.g.mu.RUnlock()
	return len(h.g.redo) > 0
}

func (h gridHistory) Undo() {
	g := h.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.undo) == 0 {
		return
	}
	batch := g.undo[len(g.undo)-1]
	g.undo = g.undo[:len(g.undo)-1]
	for i := len(batch) - 1; i >= 0; i-- {
		e := batch[i]
		g.cells[e.row][e.col] = e.old
	}
	g.redo = append(g.redo, batch)
}

func (h gridHistory) Redo() {
	g := h.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.redo) == 0 {
		return
	}
	batch := g.redo[len(g.redo)-1]
	g.redo = g.redo[:len(g.redo)-1]
	for _, e := range batch {
		g.cells[e.row][e.col] = e.new
	}
	g.undo = append(g.undo, batch)
}

type gridMerger struct{ g *Grid }

func (m gridMerger) MergeSelection() error {
	g := m.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.selected {
		return ErrMergeFailed
	}
	r := g.selection
	if r.Single() {
		return nil
	}
	kept := g.merges[:0]
	for _, existing := range g.merges {
		if !overlaps(existing, r) {
			kept = append(kept, existing)
		}
	}
	g.merges = append(kept, r)
	return nil
}

func overlaps(a, b geometry.Rect) bool {
	return a.R1 <= b.R2 && b.R1 <= a.R2 && a.C1 <= b.C2 && b.C1 <= a.C2
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

package sheet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ayusman/handsheet/internal/geometry"
)

func TestGrid_Locate(t *testing.T) {
	g := New(DefaultConfig())

	tests := []struct {
		name string
		p    geometry.ScreenPoint
		want geometry.Location
		ok   bool
	}{
		{name: "first cell", p: geometry.ScreenPoint{X: 130, Y: 155}, want: geometry.Location{Kind: geometry.LocationCell, Row: 0, Col: 0}, ok: true},
		{name: "cell B3", p: geometry.ScreenPoint{X: 200, Y: 200}, want: geometry.Location{Kind: geometry.LocationCell, Row: 2, Col: 1}, ok: true},
		{name: "column header B", p: geometry.ScreenPoint{X: 200, Y: 130}, want: geometry.Location{Kind: geometry.LocationColumnHeader, Row: -1, Col: 1, Label: "B"}, ok: true},
		{name: "row header 3", p: geometry.ScreenPoint{X: 60, Y: 195}, want: geometry.Location{Kind: geometry.LocationRowHeader, Row: -1, Col: -1, Label: "3"}, ok: true},
		{name: "corner", p: geometry.ScreenPoint{X: 60, Y: 130}},
		{name: "above the table", p: geometry.ScreenPoint{X: 200, Y: 10}},
		{name: "past visible columns", p: geometry.ScreenPoint{X: 90 + 80*12 + 1, Y: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.Locate(tt.p)
			if ok != tt.ok {
				t.Fatalf("Locate ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Locate = %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("scroll and scale shift the mapping", func(t *testing.T) {
		g := New(DefaultConfig())
		g.ScrollTo(50, 0)
		row, _ := g.ScrollOffset()
		if row != 40 {
			t.Fatalf("ScrollOffset row = %d, want 40", row)
		}
		loc, ok := g.Locate(g.CellCenter(geometry.Cell{Row: 45, Col: 3}))
		if !ok || loc.Row != 45 || loc.Col != 3 {
			t.Errorf("scrolled Locate = %+v, %v", loc, ok)
		}

		g.SetScale(1.5)
		loc, ok = g.Locate(g.CellCenter(geometry.Cell{Row: 42, Col: 2}))
		if !ok || loc.Row != 42 || loc.Col != 2 {
			t.Errorf("scaled Locate = %+v, %v", loc, ok)
		}
	})
}

func TestGrid_ValuesAndHistory(t *testing.T) {
	g := New(Config{Rows: 5, Cols: 3, History: true})

	g.SetValues([]Change{{Row: 0, Col: 0, Value: "a"}, {Row: 1, Col: 1, Value: "b"}, {Row: 99, Col: 0, Value: "ignored"}})
	g.SetValue(0, 0, "c")

	if g.Value(0, 0) != "c" || g.Value(1, 1) != "b" {
		t.Fatalf("unexpected values %q %q", g.Value(0, 0), g.Value(1, 1))
	}
	if g.Value(-1, 0) != "" {
		t.Error("out of range read should be empty")
	}

	h := g.History()
	if h == nil || !h.CanUndo() || h.CanRedo() {
		t.Fatal("expected undo available, redo empty")
	}

	h.Undo()
	if g.Value(0, 0) != "a" {
		t.Errorf("after first undo A1 = %q, want a", g.Value(0, 0))
	}
	h.Undo()
	if g.Value(0, 0) != "" || g.Value(1, 1) != "" {
		t.Error("batch undo should revert both cells")
	}
	if h.CanUndo() {
		t.Error("history should be exhausted")
	}

	h.Redo()
	if g.Value(1, 1) != "b" {
		t.Error("redo should restore the batch")
	}

	g.SetValue(2, 2, "x")
	if h.CanRedo() {
		t.Error("a new edit should clear redo")
	}
}

func TestGrid_Capabilities(t *testing.T) {
	g := New(Config{Rows: 3, Cols: 3})
	if g.History() != nil {
		t.Error("history should be nil when disabled")
	}
	if g.Merger() != nil {
		t.Error("merger should be nil when disabled")
	}
}

func TestGrid_Merge(t *testing.T) {
	g := New(DefaultConfig())

	if err := g.Merger().MergeSelection(); !errors.Is(err, ErrMergeFailed) {
		t.Errorf("merge without selection: %v", err)
	}

	g.Select(geometry.Rect{R1: 0, C1: 0, R2: 1, C2: 1})
	if err := g.Merger().MergeSelection(); err != nil {
		t.Fatalf("MergeSelection: %v", err)
	}
	g.Select(geometry.Rect{R1: 1, C1: 1, R2: 2, C2: 2})
	if err := g.Merger().MergeSelection(); err != nil {
		t.Fatalf("MergeSelection: %v", err)
	}

	merges := g.Merges()
	if len(merges) != 1 || merges[0] != (geometry.Rect{R1: 1, C1: 1, R2: 2, C2: 2}) {
		t.Errorf("overlapping merge should replace, got %+v", merges)
	}
}

func TestGrid_SelectClips(t *testing.T) {
	g := New(Config{Rows: 4, Cols: 4})
	g.Select(geometry.Rect{R1: 2, C1: 2, R2: 10, C2: 10})

	sel, ok := g.Selection()
	if !ok || sel != (geometry.Rect{R1: 2, C1: 2, R2: 3, C2: 3}) {
		t.Errorf("Selection = %+v, %v", sel, ok)
	}

	g.Deselect()
	if _, ok := g.Selection(); ok {
		t.Error("Deselect should clear the selection")
	}
}

func TestGrid_SortColumn(t *testing.T) {
	g := New(Config{Rows: 5, Cols: 2, History: true})
	g.Load([][]string{
		{"10", "ten"},
		{"", "blank"},
		{"2", "two"},
		{"apple", "fruit"},
		{"33", "thirty-three"},
	})

	if err := g.SortColumn(0, false); err != nil {
		t.Fatalf("SortColumn: %v", err)
	}
	col := func() []string {
		var out []string
		for r := 0; r < g.CountRows(); r++ {
			out = append(out, g.Value(r, 0))
		}
		return out
	}
	if got, want := col(), []string{"2", "10", "33", "apple", ""}; !reflect.DeepEqual(got, want) {
		t.Errorf("ascending = %v, want %v", got, want)
	}
	if g.Value(0, 1) != "two" {
		t.Error("rows should move together")
	}

	if err := g.SortColumn(0, true); err != nil {
		t.Fatalf("SortColumn: %v", err)
	}
	if got, want := col(), []string{"33", "10", "2", "apple", ""}; !reflect.DeepEqual(got, want) {
		t.Errorf("descending = %v, want %v", got, want)
	}

	if err := g.SortColumn(7, false); !errors.Is(err, ErrColumnOutOfRange) {
		t.Errorf("expected ErrColumnOutOfRange, got %v", err)
	}
}

func TestGrid_LoadAndData(t *testing.T) {
	g := New(Config{Rows: 2, Cols: 2})
	g.Load([][]string{{"a", "b", "c"}})

	if g.CountCols() != 3 || g.CountRows() != 2 {
		t.Errorf("size = %dx%d", g.CountRows(), g.CountCols())
	}

	data := g.Data()
	data[0][0] = "mutated"
	if g.Value(0, 0) != "a" {
		t.Error("Data should return a copy")
	}
}

func TestGrid_Editor(t *testing.T) {
	g := New(DefaultConfig())
	g.OpenEditor(geometry.Cell{Row: 1, Col: 1})
	if !g.EditorOpen() {
		t.Fatal("editor should be open")
	}
	g.CloseEditor()
	if g.EditorOpen() {
		t.Error("editor should be closed")
	}
}

func TestGrid_ImplementsSheet(t *testing.T) {
	var _ Sheet = (*Grid)(nil)
}

package target

import (
	"testing"
	"time"

	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/geometry"
	"github.com/ayusman/handsheet/internal/sheet"
)

var viewport = geometry.Viewport{Width: 1280, Height: 720}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// handOver returns a pointing hand whose index tip lands on screen point p.
func handOver(p geometry.ScreenPoint) []detector.HandLandmarks {
	x := (viewport.Width - p.X) / viewport.Width
	y := p.Y / viewport.Height
	return []detector.HandLandmarks{detector.OpenPalmAt(x, y)}
}

func newResolver(g *sheet.Grid) (*Resolver, *clock) {
	c := &clock{now: time.Unix(100, 0)}
	return New(g, Config{Viewport: viewport, Now: c.Now}), c
}

func TestResolver_Update(t *testing.T) {
	g := sheet.New(sheet.DefaultConfig())

	t.Run("cell", func(t *testing.T) {
		r, c := newResolver(g)
		if !r.Update(handOver(g.CellCenter(geometry.Cell{Row: 2, Col: 1})), c.now) {
			t.Fatal("expected update")
		}
		got, ok := r.Get()
		if !ok || got.Kind != KindCell || got.Cell != "B3" {
			t.Errorf("Get = %+v, %v", got, ok)
		}
	})

	t.Run("column header", func(t *testing.T) {
		r, c := newResolver(g)
		r.Update(handOver(geometry.ScreenPoint{X: 40 + 50 + 80*3 + 10, Y: 130}), c.now)
		got, _ := r.Get()
		if got.Kind != KindColumn || got.Column != "D" {
			t.Errorf("Get = %+v", got)
		}
	})

	t.Run("row header", func(t *testing.T) {
		r, c := newResolver(g)
		r.Update(handOver(geometry.ScreenPoint{X: 60, Y: 120 + 24 + 23*6 + 5}), c.now)
		got, _ := r.Get()
		if got.Kind != KindRow || got.Row != 7 {
			t.Errorf("Get = %+v", got)
		}
	})

	t.Run("miss keeps the previous target", func(t *testing.T) {
		r, c := newResolver(g)
		r.Update(handOver(g.CellCenter(geometry.Cell{Row: 0, Col: 0})), c.now)
		if r.Update(handOver(geometry.ScreenPoint{X: 5, Y: 5}), c.now) {
			t.Error("miss should not update")
		}
		if r.Update(nil, c.now) {
			t.Error("empty frame should not update")
		}
		if ref, _ := r.CellRef(); ref != "A1" {
			t.Errorf("CellRef = %q, want A1", ref)
		}
	})
}

func TestResolver_Freshness(t *testing.T) {
	g := sheet.New(sheet.DefaultConfig())
	g.Select(geometry.Rect{R1: 3, C1: 2, R2: 3, C2: 2})
	r, c := newResolver(g)

	r.Update(handOver(g.CellCenter(geometry.Cell{Row: 0, Col: 0})), c.now)

	c.now = c.now.Add(DefaultFreshness - time.Millisecond)
	if ref, _ := r.CellRef(); ref != "A1" {
		t.Errorf("fresh CellRef = %q, want A1", ref)
	}
	if !r.Fresh() {
		t.Error("expected fresh")
	}

	c.now = c.now.Add(time.Millisecond)
	if ref, _ := r.CellRef(); ref != "C4" {
		t.Errorf("stale CellRef = %q, want selection C4", ref)
	}
	if r.Fresh() {
		t.Error("expected stale")
	}
}

func TestResolver_SelectionFallback(t *testing.T) {
	g := sheet.New(sheet.Config{Rows: 10, Cols: 5})
	r, _ := newResolver(g)

	if _, ok := r.Get(); ok {
		t.Fatal("no pointing and no selection should resolve nothing")
	}
	if _, ok := r.CellRef(); ok {
		t.Error("CellRef should be unresolved")
	}

	tests := []struct {
		name string
		sel  geometry.Rect
		kind Kind
		cell string
		col  string
		row  int
	}{
		{name: "single cell", sel: geometry.Rect{R1: 4, C1: 1, R2: 4, C2: 1}, kind: KindCell, cell: "B5", col: "B", row: 5},
		{name: "full column", sel: geometry.Rect{R1: 0, C1: 2, R2: 9, C2: 2}, kind: KindColumn, cell: "C1", col: "C"},
		{name: "full row", sel: geometry.Rect{R1: 6, C1: 0, R2: 6, C2: 4}, kind: KindRow, cell: "A7", row: 7},
		{name: "partial rectangle", sel: geometry.Rect{R1: 1, C1: 1, R2: 3, C2: 3}, kind: KindCell, cell: "B2", col: "B", row: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Select(tt.sel)

			got, ok := r.Get()
			if !ok || got.Kind != tt.kind {
				t.Fatalf("Get = %+v, %v", got, ok)
			}
			if ref, _ := r.CellRef(); ref != tt.cell {
				t.Errorf("CellRef = %q, want %q", ref, tt.cell)
			}
			col, colOK := r.ColumnLetter()
			if col != tt.col || colOK != (tt.col != "") {
				t.Errorf("ColumnLetter = %q, %v", col, colOK)
			}
			row, rowOK := r.RowNumber()
			if row != tt.row || rowOK != (tt.row != 0) {
				t.Errorf("RowNumber = %d, %v", row, rowOK)
			}
		})
	}
}

package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/geometry"
	"github.com/ayusman/handsheet/internal/sheet"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return c.err
}

func newGrid(t *testing.T, data [][]string) *sheet.Grid {
	t.Helper()
	cfg := sheet.DefaultConfig()
	cfg.Rows, cfg.Cols = 20, 10
	cfg.VisibleRows, cfg.VisibleCols = 5, 4
	g := sheet.New(cfg)
	g.Load(data)
	return g
}

func run(t *testing.T, e *Executor, cmd command.Command) command.Result {
	t.Helper()
	res, err := e.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute(%s) error: %v", cmd, err)
	}
	return res
}

func selection(t *testing.T, g *sheet.Grid) string {
	t.Helper()
	r, ok := g.Selection()
	if !ok {
		t.Fatal("expected a selection")
	}
	return r.A1()
}

func TestExecute_Select(t *testing.T) {
	g := newGrid(t, nil)
	e := New(g, nil)

	tests := []struct {
		ref  string
		want string
	}{
		{"B3", "B3:B3"},
		{"d4:b2", "B2:D4"},
		{"C:C", "C1:C20"},
	}
	for _, tt := range tests {
		run(t, e, command.Command{Action: command.ActionSelect, Range: tt.ref})
		if got := selection(t, g); got != tt.want {
			t.Errorf("select %s -> %s, want %s", tt.ref, got, tt.want)
		}
	}

	for _, bad := range []string{"this", "Z99", "1A", ""} {
		_, err := e.Execute(context.Background(), command.Command{Action: command.ActionSelect, Range: bad})
		if err == nil {
			t.Errorf("select %q expected error", bad)
		}
	}
	_, err := e.Execute(context.Background(), command.Command{Action: command.ActionSelect, Range: "this"})
	if !errors.Is(err, ErrMalformedRange) {
		t.Errorf("unresolved placeholder error = %v, want ErrMalformedRange", err)
	}
}

func TestExecute_Scroll(t *testing.T) {
	g := newGrid(t, nil)
	e := New(g, nil)

	run(t, e, command.Command{Action: command.ActionScroll, At: "C15"})
	if got := selection(t, g); got != "C15:C15" {
		t.Errorf("scroll at -> %s", got)
	}
	row, _ := g.ScrollOffset()
	if row == 0 {
		t.Error("expected viewport to move down")
	}

	run(t, e, command.Command{Action: command.ActionScroll, Delta: -3})
	if got := selection(t, g); got != "C12:C12" {
		t.Errorf("scroll delta -> %s", got)
	}

	run(t, e, command.Command{Action: command.ActionScroll, DeltaCols: 2})
	if got := selection(t, g); got != "E12:E12" {
		t.Errorf("scroll deltaCols -> %s", got)
	}

	run(t, e, command.Command{Action: command.ActionScroll, Row: 4, Col: "B"})
	if got := selection(t, g); got != "B4:B4" {
		t.Errorf("scroll row/col -> %s", got)
	}

	run(t, e, command.Command{Action: command.ActionScroll, Delta: -100})
	if got := selection(t, g); got != "B1:B1" {
		t.Errorf("scroll clamps -> %s", got)
	}

	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionScroll}); !errors.Is(err, ErrMissingField) {
		t.Errorf("bare scroll error = %v, want ErrMissingField", err)
	}
}

func TestExecute_UndoRedo(t *testing.T) {
	g := newGrid(t, [][]string{{"x"}})
	e := New(g, nil)

	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionUndo}); !errors.Is(err, ErrHistoryEmpty) {
		t.Errorf("undo on empty history error = %v", err)
	}

	run(t, e, command.Command{Action: command.ActionDelete, Range: "A1"})
	run(t, e, command.Command{Action: command.ActionUndo})
	if g.Value(0, 0) != "x" {
		t.Errorf("after undo A1 = %q", g.Value(0, 0))
	}
	run(t, e, command.Command{Action: command.ActionRedo})
	if g.Value(0, 0) != "" {
		t.Errorf("after redo A1 = %q", g.Value(0, 0))
	}

	cfg := sheet.DefaultConfig()
	cfg.History = false
	e = New(sheet.New(cfg), nil)
	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionRedo}); !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("redo without history error = %v", err)
	}
}

func TestExecute_Delete(t *testing.T) {
	g := newGrid(t, [][]string{
		{"1", "2", "3"},
		{"4", "5", "6"},
		{"7", "8", "9"},
	})
	e := New(g, nil)

	run(t, e, command.Command{Action: command.ActionDelete, Range: "B2"})
	if g.Value(1, 1) != "" || g.Value(1, 0) != "4" || g.Value(0, 1) != "2" {
		t.Errorf("single delete touched the wrong cells: %v", g.Data()[:3])
	}

	run(t, e, command.Command{Action: command.ActionDelete, Range: "C:C"})
	for r := 0; r < 3; r++ {
		if g.Value(r, 2) != "" {
			t.Errorf("C%d = %q after column delete", r+1, g.Value(r, 2))
		}
	}
	if g.Value(2, 0) != "7" {
		t.Error("column delete touched column A")
	}
}

func TestExecute_RejectsOversizedColumns(t *testing.T) {
	g := newGrid(t, [][]string{{"1", "2"}})
	e := New(g, nil)

	for _, ref := range []string{"ZZZZZZZZZZZZZZ1", "A1:ZZZZZZZZZZZZZZ1", "AAAAAAAA:AAAAAAAA"} {
		for _, action := range []string{command.ActionDelete, command.ActionSelect} {
			_, err := e.Execute(context.Background(), command.Command{Action: action, Range: ref})
			if !errors.Is(err, ErrMalformedRange) {
				t.Errorf("%s %s error = %v, want ErrMalformedRange", action, ref, err)
			}
		}
	}
	if g.Value(0, 0) != "1" || g.Value(0, 1) != "2" {
		t.Errorf("rejected deletes changed the grid: %v", g.Data()[0])
	}
}

func TestExecute_Merge(t *testing.T) {
	g := newGrid(t, nil)
	e := New(g, nil)

	run(t, e, command.Command{Action: command.ActionMerge, Range: "A1:B2"})
	merges := g.Merges()
	if len(merges) != 1 || merges[0] != (geometry.Rect{R1: 0, C1: 0, R2: 1, C2: 1}) {
		t.Errorf("Merges() = %v", merges)
	}

	cfg := sheet.DefaultConfig()
	cfg.Merge = false
	e = New(sheet.New(cfg), nil)
	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionMerge, Range: "A1:B2"}); !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("merge disabled error = %v", err)
	}
}

func TestExecute_Zoom(t *testing.T) {
	g := newGrid(t, nil)
	e := New(g, nil)

	run(t, e, command.Command{Action: command.ActionZoom, Direction: "in"})
	if z := e.Zoom(); z < 1.09 || z > 1.11 {
		t.Errorf("zoom in -> %v", z)
	}
	for i := 0; i < 30; i++ {
		run(t, e, command.Command{Action: command.ActionZoom, Direction: "in", Step: 0.3})
	}
	if e.Zoom() != MaxZoom || g.Scale() != MaxZoom {
		t.Errorf("zoom not clamped: %v / %v", e.Zoom(), g.Scale())
	}
	for i := 0; i < 30; i++ {
		run(t, e, command.Command{Action: command.ActionZoom, Direction: "out", Step: 0.3})
	}
	if e.Zoom() != MinZoom {
		t.Errorf("zoom not clamped low: %v", e.Zoom())
	}
	run(t, e, command.Command{Action: command.ActionZoom, Direction: "reset"})
	if g.Scale() != 1 {
		t.Errorf("reset scale = %v", g.Scale())
	}
	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionZoom, Direction: "sideways"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad direction error = %v", err)
	}
}

func TestExecute_CopyPaste(t *testing.T) {
	g := newGrid(t, [][]string{
		{"1", "2"},
		{"3", "4"},
	})
	clip := &fakeClipboard{}
	e := New(g, clip)

	run(t, e, command.Command{Action: command.ActionCopy, Range: "A1:B2"})
	if clip.text != "1\t2\n3\t4" {
		t.Errorf("clipboard = %q", clip.text)
	}
	buf, ok := e.Buffer()
	if !ok || buf.Source.A1() != "A1:B2" {
		t.Errorf("Buffer() = %+v, %v", buf, ok)
	}

	run(t, e, command.Command{Action: command.ActionPaste, At: "D5"})
	want := map[[2]int]string{{4, 3}: "1", {4, 4}: "2", {5, 3}: "3", {5, 4}: "4"}
	for rc, v := range want {
		if got := g.Value(rc[0], rc[1]); got != v {
			t.Errorf("cell %v = %q, want %q", rc, got, v)
		}
	}
	if got := selection(t, g); got != "D5:E6" {
		t.Errorf("selection after paste = %s, want D5:E6", got)
	}

	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionPaste, At: "A10"}); !errors.Is(err, ErrNoCopyBuffer) {
		t.Errorf("second paste error = %v, want ErrNoCopyBuffer", err)
	}
}

func TestExecute_CopyUsesSelectionAndSurvivesClipboardFailure(t *testing.T) {
	g := newGrid(t, [][]string{{"a", "b"}})
	e := New(g, &fakeClipboard{err: errors.New("denied")})

	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionCopy}); !errors.Is(err, ErrMissingField) {
		t.Errorf("copy without selection error = %v", err)
	}

	g.Select(geometry.Rect{R1: 0, C1: 1, R2: 0, C2: 1})
	run(t, e, command.Command{Action: command.ActionCopy})
	g.Select(geometry.Rect{R1: 3, C1: 0, R2: 3, C2: 0})
	run(t, e, command.Command{Action: command.ActionPaste})
	if g.Value(3, 0) != "b" {
		t.Errorf("A4 = %q, want b", g.Value(3, 0))
	}
}

func TestExecute_Autofill(t *testing.T) {
	t.Run("numeric series", func(t *testing.T) {
		g := newGrid(t, [][]string{{"2"}, {"4"}})
		run(t, New(g, nil), command.Command{Action: command.ActionAutofill, Range: "A1:A5", Pattern: "series"})
		for i, want := range []string{"2", "4", "6", "8", "10"} {
			if got := g.Value(i, 0); got != want {
				t.Errorf("A%d = %q, want %q", i+1, got, want)
			}
		}
	})

	t.Run("row series with fractions", func(t *testing.T) {
		g := newGrid(t, [][]string{{"0.1", "0.2"}})
		run(t, New(g, nil), command.Command{Action: command.ActionAutofill, Range: "A1:D1", Pattern: "series"})
		if got := g.Value(0, 3); got != "0.4" {
			t.Errorf("D1 = %q, want 0.4", got)
		}
	})

	t.Run("non numeric falls back to repeat", func(t *testing.T) {
		g := newGrid(t, [][]string{{"x"}, {"y"}})
		run(t, New(g, nil), command.Command{Action: command.ActionAutofill, Range: "A1:A4", Pattern: "series"})
		for i := 0; i < 4; i++ {
			if got := g.Value(i, 0); got != "x" {
				t.Errorf("A%d = %q, want x", i+1, got)
			}
		}
	})

	t.Run("repeat over rectangle", func(t *testing.T) {
		g := newGrid(t, [][]string{{"7"}})
		run(t, New(g, nil), command.Command{Action: command.ActionAutofill, Range: "A1:B2", Pattern: "repeat"})
		if g.Value(1, 1) != "7" {
			t.Errorf("B2 = %q", g.Value(1, 1))
		}
	})

	t.Run("series on rectangle fails", func(t *testing.T) {
		g := newGrid(t, [][]string{{"1", "2"}})
		_, err := New(g, nil).Execute(context.Background(), command.Command{Action: command.ActionAutofill, Range: "A1:B2", Pattern: "series"})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestExecute_WriteSortAggregate(t *testing.T) {
	g := newGrid(t, [][]string{{"3"}, {"1"}, {"x"}, {"2"}})
	e := New(g, nil)

	run(t, e, command.Command{Action: command.ActionWrite, Range: "B1:B2", Value: "hi"})
	if g.Value(0, 1) != "hi" || g.Value(1, 1) != "hi" {
		t.Error("write did not fill the range")
	}

	res := run(t, e, command.Command{Action: command.ActionSum, Range: "A:A"})
	if !res.HasValue || res.Value != 6 {
		t.Errorf("sum = %+v", res)
	}
	res = run(t, e, command.Command{Action: command.ActionAverage, Range: "A1:A4"})
	if res.Value != 2 {
		t.Errorf("average = %v", res.Value)
	}
	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionAverage, Range: "C1:C3"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("average of blanks error = %v", err)
	}

	run(t, e, command.Command{Action: command.ActionSort, Column: "a", Direction: "desc"})
	for i, want := range []string{"3", "2", "1", "x"} {
		if got := g.Value(i, 0); got != want {
			t.Errorf("A%d = %q, want %q", i+1, got, want)
		}
	}
	if _, err := e.Execute(context.Background(), command.Command{Action: command.ActionSort}); !errors.Is(err, ErrMissingField) {
		t.Errorf("sort without column error = %v", err)
	}
}

func TestExecute_ClosesEditorBeforeMutating(t *testing.T) {
	g := newGrid(t, nil)
	e := New(g, nil)

	g.OpenEditor(geometry.Cell{})
	run(t, e, command.Command{Action: command.ActionSelect, Range: "A1"})
	if !g.EditorOpen() {
		t.Error("select must leave the editor open")
	}
	run(t, e, command.Command{Action: command.ActionWrite, Range: "A1", Value: "v"})
	if g.EditorOpen() {
		t.Error("write must close the editor")
	}
}

func TestExecute_Unsupported(t *testing.T) {
	e := New(newGrid(t, nil), nil)
	if _, err := e.Execute(context.Background(), command.Command{Action: "dance"}); !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("error = %v, want ErrUnsupportedAction", err)
	}
}

func TestPipelineScenario_WriteThisUsesSelection(t *testing.T) {
	g := newGrid(t, nil)
	g.Select(geometry.Rect{R1: 3, C1: 2, R2: 3, C2: 2})
	pointer := selectionPointer{g}

	var saved [][]string
	p := command.NewPipeline(command.PipelineConfig{
		Normalizer: command.NewNormalizer(pointer),
		Executor:   New(g, nil),
		Data:       g,
		Autosave:   func(d [][]string) { saved = d },
	})
	out := p.Dispatch(context.Background(), command.Command{Action: command.ActionWrite, Range: "this", Value: "42"})
	if !out.OK || out.Command.Range != "C4" {
		t.Fatalf("Outcome = %+v", out)
	}
	if g.Value(3, 2) != "42" {
		t.Errorf("C4 = %q", g.Value(3, 2))
	}
	if saved == nil || saved[3][2] != "42" {
		t.Error("expected autosave with the written value")
	}
}

// selectionPointer resolves "this" to the selection's top-left, like a
// target resolver with no fresh pointing data.
type selectionPointer struct{ g *sheet.Grid }

func (p selectionPointer) CellRef() (string, bool) {
	r, ok := p.g.Selection()
	if !ok {
		return "", false
	}
	return r.TopLeft().A1(), true
}

func (p selectionPointer) ColumnLetter() (string, bool) {
	r, ok := p.g.Selection()
	if !ok {
		return "", false
	}
	return geometry.ColumnLetters(r.C1), true
}

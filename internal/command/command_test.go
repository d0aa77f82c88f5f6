package command

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakePointer struct {
	cell   string
	column string
}

func (p fakePointer) CellRef() (string, bool)      { return p.cell, p.cell != "" }
func (p fakePointer) ColumnLetter() (string, bool) { return p.column, p.column != "" }

func TestColumnRef_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want ColumnRef
	}{
		{`"c"`, "C"},
		{`" AB "`, "AB"},
		{`3`, "C"},
		{`27`, "AA"},
	}
	for _, tt := range tests {
		var r ColumnRef
		if err := json.Unmarshal([]byte(tt.in), &r); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if r != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, r, tt.want)
		}
	}

	for _, bad := range []string{`0`, `-2`, `1.5`, `true`} {
		var r ColumnRef
		if err := json.Unmarshal([]byte(bad), &r); err == nil {
			t.Errorf("Unmarshal(%s) expected error, got %q", bad, r)
		}
	}
}

func TestCommand_DecodesWireFormat(t *testing.T) {
	var cmd Command
	data := `{"action":"scroll","deltaCols":2,"col":"d","row":7}`
	if err := json.Unmarshal([]byte(data), &cmd); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if cmd.Action != ActionScroll || cmd.DeltaCols != 2 || cmd.Col != "D" || cmd.Row != 7 {
		t.Errorf("decoded %+v", cmd)
	}
	if cmd.Col.Index() != 3 {
		t.Errorf("Col.Index() = %d, want 3", cmd.Col.Index())
	}
}

func TestCommand_Mutating(t *testing.T) {
	for _, a := range []string{ActionDelete, ActionWrite, ActionPaste, ActionSort, ActionAutofill} {
		if !(Command{Action: a}).Mutating() {
			t.Errorf("%s should be mutating", a)
		}
	}
	for _, a := range []string{ActionSelect, ActionScroll, ActionZoom, ActionSum} {
		if (Command{Action: a}).Mutating() {
			t.Errorf("%s should not be mutating", a)
		}
	}
}

func TestNormalizer(t *testing.T) {
	p := fakePointer{cell: "C4", column: "C"}
	n := NewNormalizer(p)

	tests := []struct {
		name string
		in   Command
		want Command
	}{
		{"range this", Command{Action: "delete", Range: "This"}, Command{Action: "delete", Range: "C4"}},
		{"at here", Command{Action: "paste", At: " here "}, Command{Action: "paste", At: "C4"}},
		{"column this", Command{Action: "sort", Column: "this"}, Command{Action: "sort", Column: "C"}},
		{"write omitted range", Command{Action: "write", Value: "7"}, Command{Action: "write", Value: "7", Range: "C4"}},
		{"sort omitted column", Command{Action: "SORT", Direction: "DESC"}, Command{Action: "sort", Direction: "desc", Column: "C"}},
		{"sum omitted range", Command{Action: "sum"}, Command{Action: "sum", Range: "C:C"}},
		{"scroll bare", Command{Action: "scroll"}, Command{Action: "scroll", At: "C4"}},
		{"scroll delta kept", Command{Action: "scroll", Delta: 3}, Command{Action: "scroll", Delta: 3}},
		{"explicit range kept", Command{Action: "delete", Range: "A1:B2"}, Command{Action: "delete", Range: "A1:B2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizer_Unresolved(t *testing.T) {
	n := NewNormalizer(fakePointer{})

	got := n.Normalize(Command{Action: "delete", Range: "this"})
	if got.Range != "this" {
		t.Errorf("unresolved placeholder changed to %q", got.Range)
	}
	got = n.Normalize(Command{Action: "write", Value: "x"})
	if got.Range != "" {
		t.Errorf("write range = %q, want empty", got.Range)
	}
	got = NewNormalizer(nil).Normalize(Command{Action: "sort"})
	if got.Column != "" {
		t.Errorf("sort column = %q, want empty", got.Column)
	}
}

type recordingExecutor struct {
	seen []Command
	err  error
}

func (e *recordingExecutor) Execute(_ context.Context, cmd Command) (Result, error) {
	e.seen = append(e.seen, cmd)
	return Result{Range: cmd.Range}, e.err
}

type fakeData [][]string

func (d fakeData) Data() [][]string { return d }

func TestPipeline_Dispatch(t *testing.T) {
	exec := &recordingExecutor{}
	var saved [][]string
	var outcomes []Outcome
	p := NewPipeline(PipelineConfig{
		Normalizer: NewNormalizer(fakePointer{cell: "C4", column: "C"}),
		Executor:   exec,
		Data:       fakeData{{"1"}},
		Autosave:   func(d [][]string) { saved = d },
		OnOutcome:  func(o Outcome) { outcomes = append(outcomes, o) },
	})

	out := p.Dispatch(context.Background(), Command{Action: "write", Range: "this", Value: "5", Source: SourceSpeech})
	if !out.OK {
		t.Fatalf("Dispatch failed: %v", out.Err)
	}
	if len(exec.seen) != 1 || exec.seen[0].Range != "C4" {
		t.Errorf("executor saw %+v, want range C4", exec.seen)
	}
	if out.Command.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if saved == nil {
		t.Error("expected autosave after a mutating command")
	}
	if len(outcomes) != 1 {
		t.Errorf("observer called %d times, want 1", len(outcomes))
	}

	saved = nil
	p.Dispatch(context.Background(), Command{Action: "select", Range: "A1"})
	if saved != nil {
		t.Error("select must not autosave")
	}
}

func TestPipeline_DispatchFailure(t *testing.T) {
	boom := errors.New("boom")
	var saved bool
	p := NewPipeline(PipelineConfig{
		Executor: &recordingExecutor{err: boom},
		Data:     fakeData{},
		Autosave: func([][]string) { saved = true },
	})

	out := p.Dispatch(context.Background(), Command{Action: "delete", Range: "A1"})
	if out.OK || !errors.Is(out.Err, boom) {
		t.Errorf("Outcome = %+v, want failure wrapping boom", out)
	}
	if out.Error() != "boom" {
		t.Errorf("Error() = %q", out.Error())
	}
	if saved {
		t.Error("failed command must not autosave")
	}
}

func TestPipeline_NoExecutor(t *testing.T) {
	out := NewPipeline(PipelineConfig{}).Dispatch(context.Background(), Command{Action: "undo"})
	if !errors.Is(out.Err, ErrNoExecutor) {
		t.Errorf("Err = %v, want ErrNoExecutor", out.Err)
	}
}

type panickingExecutor struct{}

func (panickingExecutor) Execute(context.Context, Command) (Result, error) {
	panic("makeslice: cap out of range")
}

func TestPipeline_RecoversExecutorPanic(t *testing.T) {
	var outcomes []Outcome
	p := NewPipeline(PipelineConfig{
		Executor:  panickingExecutor{},
		OnOutcome: func(o Outcome) { outcomes = append(outcomes, o) },
	})

	out := p.Dispatch(context.Background(), Command{Action: "delete", Range: "A1"})
	if out.OK || !errors.Is(out.Err, ErrExecutorPanic) {
		t.Fatalf("Outcome = %+v, want ErrExecutorPanic", out)
	}
	if len(outcomes) != 1 {
		t.Errorf("observer called %d times, want 1", len(outcomes))
	}

	// the pipeline lock was released
	out = p.Dispatch(context.Background(), Command{Action: "undo"})
	if !errors.Is(out.Err, ErrExecutorPanic) {
		t.Errorf("second dispatch Err = %v", out.Err)
	}
}

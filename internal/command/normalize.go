package command

import "strings"

// Pointer supplies the current pointing projections.
type Pointer interface {
	CellRef() (string, bool)
	ColumnLetter() (string, bool)
}

// Normalizer rewrites deictic placeholders into concrete references.
type Normalizer struct {
	pointer Pointer
}

// NewNormalizer creates a Normalizer backed by p.
func NewNormalizer(p Pointer) *Normalizer {
	return &Normalizer{pointer: p}
}

// IsDeictic reports whether s is a "this"/"here" placeholder.
func IsDeictic(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "this") || strings.EqualFold(s, "here")
}

// Normalize returns cmd with placeholders and omitted references filled from
// the pointer. A placeholder that cannot be resolved is left as is so that
// execution fails on that field.
func (n *Normalizer) Normalize(cmd Command) Command {
	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))
	cmd.Direction = strings.ToLower(strings.TrimSpace(cmd.Direction))
	cmd.Pattern = strings.ToLower(strings.TrimSpace(cmd.Pattern))

	if IsDeictic(cmd.Range) {
		if ref, ok := n.cell(); ok {
			cmd.Range = ref
		}
	}
	if IsDeictic(cmd.At) {
		if ref, ok := n.cell(); ok {
			cmd.At = ref
		}
	}
	if IsDeictic(cmd.Column) {
		if col, ok := n.column(); ok {
			cmd.Column = col
		}
	}

	switch cmd.Action {
	case ActionWrite:
		if strings.TrimSpace(cmd.Range) == "" {
			cmd.Range, _ = n.cell()
		}
	case ActionSort:
		if strings.TrimSpace(cmd.Column) == "" {
			cmd.Column, _ = n.column()
		}
	case ActionSum, ActionAverage:
		if strings.TrimSpace(cmd.Range) == "" {
			if col, ok := n.column(); ok {
				cmd.Range = col + ":" + col
			}
		}
	case ActionScroll:
		if cmd.At == "" && cmd.Row == 0 && cmd.Col == "" && cmd.Delta == 0 && cmd.DeltaCols == 0 {
			cmd.At, _ = n.cell()
		}
	}
	return cmd
}

func (n *Normalizer) cell() (string, bool) {
	if n.pointer == nil {
		return "", false
	}
	return n.pointer.CellRef()
}

func (n *Normalizer) column() (string, bool) {
	if n.pointer == nil {
		return "", false
	}
	return n.pointer.ColumnLetter()
}

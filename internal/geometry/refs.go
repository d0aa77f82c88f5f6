package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedReference is returned when an A1-style reference cannot be parsed.
var ErrMalformedReference = errors.New("malformed cell reference")

// ColumnLetters converts a zero-based column index to spreadsheet letters:
// 0 is "A", 25 is "Z", 26 is "AA". Negative indexes yield "".
func ColumnLetters(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index; n >= 0; n = n/26 - 1 {
		b = append(b, byte('A'+n%26))
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// MaxColumnLetters bounds the length of a column reference.
const MaxColumnLetters = 7

// ColumnIndex converts spreadsheet letters to a zero-based column index.
// Letters are case-insensitive. It returns -1 for anything that is not
// letters or is longer than MaxColumnLetters.
func ColumnIndex(letters string) int {
	s := strings.ToUpper(strings.TrimSpace(letters))
	if s == "" || len(s) > MaxColumnLetters {
		return -1
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return -1
		}
		n = n*26 + int(c-'A'+1)
	}
	return n - 1
}

// Cell is a zero-based grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// A1 renders the cell as an A1-style reference.
func (c Cell) A1() string {
	return ColumnLetters(c.Col) + strconv.Itoa(c.Row+1)
}

// ParseCell parses a single A1-style reference such as "b7".
func ParseCell(ref string) (Cell, error) {
	s := strings.ToUpper(strings.TrimSpace(ref))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return Cell{}, fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}
	row, err := strconv.Atoi(s[i:])
	col := ColumnIndex(s[:i])
	if err != nil || row < 1 || col < 0 {
		return Cell{}, fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}
	return Cell{Row: row - 1, Col: col}, nil
}

// Rect is an inclusive, zero-based cell rectangle with R1<=R2 and C1<=C2.
type Rect struct {
	R1 int `json:"r1"`
	C1 int `json:"c1"`
	R2 int `json:"r2"`
	C2 int `json:"c2"`
}

// RectOf returns the bounding rectangle of two cells.
func RectOf(a, b Cell) Rect {
	return Rect{
		R1: min(a.Row, b.Row),
		C1: min(a.Col, b.Col),
		R2: max(a.Row, b.Row),
		C2: max(a.Col, b.Col),
	}
}

// TopLeft returns the rectangle's anchor cell.
func (r Rect) TopLeft() Cell { return Cell{Row: r.R1, Col: r.C1} }

// Height returns the number of rows covered.
func (r Rect) Height() int { return r.R2 - r.R1 + 1 }

// Width returns the number of columns covered.
func (r Rect) Width() int { return r.C2 - r.C1 + 1 }

// Single reports whether the rectangle covers exactly one cell.
func (r Rect) Single() bool { return r.R1 == r.R2 && r.C1 == r.C2 }

// Contains reports whether c lies inside r.
func (r Rect) Contains(c Cell) bool {
	return c.Row >= r.R1 && c.Row <= r.R2 && c.Col >= r.C1 && c.Col <= r.C2
}

// A1 renders the rectangle as "B2:D4". Single cells still render as a span.
func (r Rect) A1() string {
	return Cell{Row: r.R1, Col: r.C1}.A1() + ":" + Cell{Row: r.R2, Col: r.C2}.A1()
}

// ParseRange parses "B2", "B2:D4" or the whole-column form "C:C" / "C:E".
// Whole columns span rows 0..rowCount-1.
func ParseRange(ref string, rowCount int) (Rect, error) {
	s := strings.TrimSpace(ref)
	first, second, isSpan := strings.Cut(s, ":")
	if !isSpan {
		c, err := ParseCell(s)
		if err != nil {
			return Rect{}, err
		}
		return RectOf(c, c), nil
	}

	c1, c2 := ColumnIndex(first), ColumnIndex(second)
	if c1 >= 0 && c2 >= 0 {
		if rowCount < 1 {
			return Rect{}, fmt.Errorf("%w: %q needs a row count", ErrMalformedReference, ref)
		}
		return Rect{R1: 0, C1: min(c1, c2), R2: rowCount - 1, C2: max(c1, c2)}, nil
	}

	a, err := ParseCell(first)
	if err != nil {
		return Rect{}, err
	}
	b, err := ParseCell(second)
	if err != nil {
		return Rect{}, err
	}
	return RectOf(a, b), nil
}

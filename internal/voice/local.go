package voice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ayusman/handsheet/internal/command"
)

// MinLocalConfidence is the lowest local match that is acted on.
const MinLocalConfidence = 0.55

// placeholder is resolved later against whatever the user points at.
const placeholder = "this"

// Match is a locally parsed command.
type Match struct {
	Command    command.Command
	Confidence float64
}

var (
	deicticRe    = regexp.MustCompile(`\b(?:this|here)\b`)
	spanRe       = regexp.MustCompile(`\b([a-z]+\d+)(?::|\s+(?:to|through|thru)\s+)([a-z]+\d+)\b`)
	selectRefRe  = regexp.MustCompile(`\bselect\s+([a-z]+\d+(?::[a-z]+\d+)?)\b`)
	scrollUpRe   = regexp.MustCompile(`\bscroll\s+up\s+(\d+)\b`)
	scrollDownRe = regexp.MustCompile(`\bscroll\s+down\s+(\d+)\b`)
	rowRe        = regexp.MustCompile(`\brow\s+(\d+)\b`)
	columnRe     = regexp.MustCompile(`\bcolumn\s+([a-z]+)\b`)
	pasteAtRe    = regexp.MustCompile(`\bat\s+([a-z]+\d+)\b`)
	sortDescRe   = regexp.MustCompile(`\bdesc(?:ending)?\b|\breverse\b|\blargest\b|\bhigh(?:est)?\b`)
	sortColRe    = regexp.MustCompile(`^sort\s+([a-z]{1,2})\b`)
	writeAtRe    = regexp.MustCompile(`^write\s+(.+?)\s+(?:in|into|at)\s+([a-z]+\d+)\s*$`)
	writeHereRe  = regexp.MustCompile(`^write\s+(.+?)\s+(?:here|this)\s*$`)
	writeBareRe  = regexp.MustCompile(`^write\s+(.+?)\s*$`)
)

// has reports whether word appears as a whole word in s.
func has(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		if f == word {
			return true
		}
	}
	return false
}

func startsWith(s string, words ...string) bool {
	first, _, _ := strings.Cut(s, " ")
	for _, w := range words {
		if first == w {
			return true
		}
	}
	return false
}

func span(s string) (string, bool) {
	m := spanRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]) + ":" + strings.ToUpper(m[2]), true
}

// ParseLocal matches a cleaned transcript against the built-in phrases.
// Deictic words become "this" placeholders.
func ParseLocal(s string) (Match, bool) {
	deictic := deicticRe.MatchString(s)
	m := func(conf float64, cmd command.Command) (Match, bool) {
		cmd.Source = command.SourceSpeech
		return Match{Command: cmd, Confidence: conf}, true
	}

	if has(s, "select") {
		if deictic {
			return m(0.9, command.Command{Action: command.ActionSelect, Range: placeholder})
		}
		if r := selectRefRe.FindStringSubmatch(s); r != nil {
			return m(0.92, command.Command{Action: command.ActionSelect, Range: strings.ToUpper(r[1])})
		}
	}

	if has(s, "scroll") || strings.Contains(s, "go to") {
		if deictic {
			return m(0.9, command.Command{Action: command.ActionScroll, At: placeholder})
		}
		if r := scrollUpRe.FindStringSubmatch(s); r != nil {
			n, _ := strconv.Atoi(r[1])
			return m(0.85, command.Command{Action: command.ActionScroll, Delta: -n})
		}
		if r := scrollDownRe.FindStringSubmatch(s); r != nil {
			n, _ := strconv.Atoi(r[1])
			return m(0.85, command.Command{Action: command.ActionScroll, Delta: n})
		}
		if r := rowRe.FindStringSubmatch(s); r != nil {
			n, _ := strconv.Atoi(r[1])
			return m(0.9, command.Command{Action: command.ActionScroll, Row: n})
		}
		if r := columnRe.FindStringSubmatch(s); r != nil {
			return m(0.9, command.Command{Action: command.ActionScroll, Col: command.ColumnRef(strings.ToUpper(r[1]))})
		}
	}

	switch {
	case startsWith(s, "undo"):
		return m(0.95, command.Command{Action: command.ActionUndo})
	case startsWith(s, "redo"):
		return m(0.95, command.Command{Action: command.ActionRedo})
	}

	if startsWith(s, "delete", "clear") {
		if deictic {
			return m(0.92, command.Command{Action: command.ActionDelete, Range: placeholder})
		}
		if r, ok := span(s); ok {
			return m(0.92, command.Command{Action: command.ActionDelete, Range: r})
		}
	}

	if startsWith(s, "merge") {
		if deictic {
			return m(0.85, command.Command{Action: command.ActionMerge, Range: placeholder})
		}
		if r, ok := span(s); ok {
			return m(0.92, command.Command{Action: command.ActionMerge, Range: r})
		}
	}

	if has(s, "zoom") {
		for _, dir := range []string{"in", "out", "reset"} {
			if has(s, dir) {
				return m(0.9, command.Command{Action: command.ActionZoom, Direction: dir})
			}
		}
	}

	if startsWith(s, "copy") {
		if deictic {
			return m(0.9, command.Command{Action: command.ActionCopy, Range: placeholder})
		}
		if r, ok := span(s); ok {
			return m(0.92, command.Command{Action: command.ActionCopy, Range: r})
		}
	}

	if startsWith(s, "paste") {
		if deictic {
			return m(0.9, command.Command{Action: command.ActionPaste, At: placeholder})
		}
		if r := pasteAtRe.FindStringSubmatch(s); r != nil {
			return m(0.92, command.Command{Action: command.ActionPaste, At: strings.ToUpper(r[1])})
		}
	}

	if startsWith(s, "sort") {
		dir := "asc"
		if sortDescRe.MatchString(s) {
			dir = "desc"
		}
		col := ""
		if r := columnRe.FindStringSubmatch(s); r != nil {
			col = r[1]
		} else if r := sortColRe.FindStringSubmatch(s); r != nil && r[1] != "by" {
			col = r[1]
		} else if has(s, "this") {
			col = placeholder
		}
		if col != "" {
			if col != placeholder {
				col = strings.ToUpper(col)
			}
			return m(0.9, command.Command{Action: command.ActionSort, Column: col, Direction: dir})
		}
	}

	if startsWith(s, "write") {
		if r := writeAtRe.FindStringSubmatch(s); r != nil {
			return m(0.95, command.Command{Action: command.ActionWrite, Range: strings.ToUpper(r[2]), Value: strings.TrimSpace(r[1])})
		}
		if r := writeHereRe.FindStringSubmatch(s); r != nil {
			return m(0.92, command.Command{Action: command.ActionWrite, Range: placeholder, Value: strings.TrimSpace(r[1])})
		}
		if r := writeBareRe.FindStringSubmatch(s); r != nil {
			return m(0.9, command.Command{Action: command.ActionWrite, Value: strings.TrimSpace(r[1])})
		}
	}

	if startsWith(s, "sum", "total") {
		if r, ok := span(s); ok {
			return m(0.9, command.Command{Action: command.ActionSum, Range: r})
		}
		if has(s, "this") {
			return m(0.9, command.Command{Action: command.ActionSum})
		}
	}
	if startsWith(s, "average", "mean") {
		if r, ok := span(s); ok {
			return m(0.9, command.Command{Action: command.ActionAverage, Range: r})
		}
		if has(s, "this") {
			return m(0.9, command.Command{Action: command.ActionAverage})
		}
	}

	return Match{}, false
}

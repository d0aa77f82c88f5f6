// Package voice turns spoken transcripts into spreadsheet commands, using an
// LLM when one is configured and a local rule parser otherwise.
package voice

import (
	"regexp"
	"strings"
)

var (
	hotwordRe     = regexp.MustCompile(`(?i)^(?:hey|ok|okay)\s+flexe?i?e?\s*`)
	bareHotwordRe = regexp.MustCompile(`(?i)^flexe?i?e?,?\s*`)
	mishearRe     = regexp.MustCompile(`(?i)^(?:play\s+se?a?\s+|play\s+see\s+|place\s+|plexi\s+|lexi\s+|sexy\s+)`)
	spacedDigitRe = regexp.MustCompile(`\b(\d)\s+(\d)\b`)
	// only a leading "right" is a misheard verb; "scroll right" is a direction
	leadingWriteRe = regexp.MustCompile(`^(?:right|rite)\b`)
	leadingSortRe  = regexp.MustCompile(`^(?:sea|see) salt\b`)
)

// Clean strips the hotword and common speech-to-text mishears, lowercases,
// and joins digits the recognizer split apart ("5 0" becomes "50").
func Clean(transcript string) string {
	t := strings.TrimSpace(transcript)
	t = hotwordRe.ReplaceAllString(t, "")
	t = bareHotwordRe.ReplaceAllString(t, "")
	t = mishearRe.ReplaceAllString(t, "")
	t = strings.Join(strings.Fields(strings.ToLower(t)), " ")
	t = leadingWriteRe.ReplaceAllString(t, "write")
	t = leadingSortRe.ReplaceAllString(t, "sort")
	for {
		next := spacedDigitRe.ReplaceAllString(t, "$1$2")
		if next == t {
			return t
		}
		t = next
	}
}

// Package transcript assembles per-segment recognition results into the
// final transcript and derives its display statistics.
package transcript

import (
	"errors"
	"strings"
)

// ErrNoText is returned when every segment came back empty.
var ErrNoText = errors.New("no text found in the audio")

// Assemble trims each segment text, drops empties, and joins the survivors
// with a single space in segment order.
func Assemble(parts []string) (string, error) {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	joined := strings.Join(kept, " ")
	if strings.TrimSpace(joined) == "" {
		return "", ErrNoText
	}
	return joined, nil
}

// WordCount is the number of whitespace-delimited tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// CharCount is the transcript's length in runes, internal spaces included.
func CharCount(s string) int {
	return len([]rune(s))
}

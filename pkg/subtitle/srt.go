// Package subtitle renders a transcript as an SRT document.
//
// Known limitation: the timing is synthetic. Each caption gets a uniform
// chunk-duration wide window based on its position in the text, with no
// relation to where the words occur in the source audio.
package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// Render splits the transcript on ". " and emits one caption block per
// non-empty fragment. A fragment keeps the ordinal of its position in the
// split sequence, so its sequence number and time window are stable even
// when neighboring fragments are blank.
func Render(transcript string, chunk time.Duration) string {
	var b strings.Builder
	for i, fragment := range strings.Split(transcript, ". ") {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		start := time.Duration(i) * chunk
		end := time.Duration(i+1) * chunk
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", Timestamp(start), Timestamp(end))
		fmt.Fprintf(&b, "%s.\n\n", strings.TrimSuffix(fragment, "."))
	}
	return b.String()
}

// Timestamp formats a duration as the SRT HH:MM:SS,mmm form. Captions here
// are always on whole seconds, so the millisecond part is constant.
func Timestamp(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d,000", h, m, s)
}

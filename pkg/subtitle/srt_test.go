package subtitle

import (
	"strings"
	"testing"
	"time"
)

func TestRenderThreeSentences(t *testing.T) {
	got := Render("Hello world. This is a test. Goodbye.", 30*time.Second)
	want := "1\n" +
		"00:00:00,000 --> 00:00:30,000\n" +
		"Hello world.\n" +
		"\n" +
		"2\n" +
		"00:00:30,000 --> 00:01:00,000\n" +
		"This is a test.\n" +
		"\n" +
		"3\n" +
		"00:01:00,000 --> 00:01:30,000\n" +
		"Goodbye.\n" +
		"\n"
	if got != want {
		t.Fatalf("Render mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderSingleTrailingPeriod(t *testing.T) {
	// The final fragment keeps its own period; the formatter must not
	// double it.
	got := Render("One. Two.", 10*time.Second)
	for _, line := range strings.Split(got, "\n") {
		if strings.HasSuffix(line, "..") {
			t.Fatalf("caption line has doubled period: %q", line)
		}
	}
	if !strings.Contains(got, "Two.\n") {
		t.Fatalf("missing final caption: %s", got)
	}
}

func TestRenderBlankFragmentKeepsOrdinals(t *testing.T) {
	// "A. . B" splits into ["A", "", "B"]; the blank fragment is skipped
	// but B keeps its slot-3 numbering and time window.
	got := Render("A. . B", 30*time.Second)
	if strings.Contains(got, "\n2\n") {
		t.Fatalf("blank fragment should not produce a caption:\n%s", got)
	}
	if !strings.Contains(got, "3\n00:01:00,000 --> 00:01:30,000\nB.\n") {
		t.Fatalf("third fragment lost its ordinal slot:\n%s", got)
	}
}

func TestRenderEmptyTranscript(t *testing.T) {
	if got := Render("", 30*time.Second); got != "" {
		t.Fatalf("Render(\"\") = %q, want empty", got)
	}
}

func TestRenderChunkDurationScalesTimes(t *testing.T) {
	got := Render("A. B", 10*time.Second)
	if !strings.Contains(got, "00:00:00,000 --> 00:00:10,000") {
		t.Fatalf("first window wrong:\n%s", got)
	}
	if !strings.Contains(got, "00:00:10,000 --> 00:00:20,000") {
		t.Fatalf("second window wrong:\n%s", got)
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{30 * time.Second, "00:00:30,000"},
		{90 * time.Second, "00:01:30,000"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03,000"},
		{25 * time.Hour, "25:00:00,000"},
	}
	for _, tc := range tests {
		if got := Timestamp(tc.d); got != tc.want {
			t.Errorf("Timestamp(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

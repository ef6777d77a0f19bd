package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    time.Duration
		wantErr bool
	}{
		{
			"typical banner",
			"Input #0, wav, from 'audio.wav':\n  Duration: 00:05:23.45, bitrate: 256 kb/s",
			5*time.Minute + 23*time.Second + 450*time.Millisecond,
			false,
		},
		{
			"hours",
			"  Duration: 01:02:03.004, start: 0.000000",
			time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond,
			false,
		},
		{
			"single fractional digit",
			"Duration: 00:00:10.5",
			10*time.Second + 500*time.Millisecond,
			false,
		},
		{"no duration line", "some unrelated output", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDuration(tc.output)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("parseDuration = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseMeanVolume(t *testing.T) {
	out := `[Parsed_volumedetect_0 @ 0x7f] n_samples: 4800000
[Parsed_volumedetect_0 @ 0x7f] mean_volume: -23.4 dB
[Parsed_volumedetect_0 @ 0x7f] max_volume: -5.1 dB`
	got, err := parseMeanVolume(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -23.4 {
		t.Fatalf("parseMeanVolume = %v, want -23.4", got)
	}

	if _, err := parseMeanVolume("nothing here"); err == nil {
		t.Fatal("expected error for missing mean_volume")
	}
}

func TestParseSilence(t *testing.T) {
	out := `[silencedetect @ 0x1] silence_start: 4.2
[silencedetect @ 0x1] silence_end: 6.5 | silence_duration: 2.3
[silencedetect @ 0x1] silence_start: 10
[silencedetect @ 0x1] silence_end: 11.25 | silence_duration: 1.25
[silencedetect @ 0x1] silence_start: 30.0`
	got := parseSilence(out)
	want := []SilenceRange{
		{Start: 4200 * time.Millisecond, End: 6500 * time.Millisecond},
		{Start: 10 * time.Second, End: 11250 * time.Millisecond},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFFmpegTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{30 * time.Second, "00:00:30.000"},
		{time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond, "01:02:03.500"},
	}
	for _, tc := range tests {
		if got := ffmpegTime(tc.d); got != tc.want {
			t.Errorf("ffmpegTime(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

// scriptRunner fakes command execution by matching on argument content.
type scriptRunner struct {
	combined func(args []string) ([]byte, error)
	output   func(args []string) ([]byte, error)
}

func (r scriptRunner) CombinedOutput(_ context.Context, _ string, args ...string) ([]byte, error) {
	return r.combined(args)
}

func (r scriptRunner) Output(_ context.Context, _ string, args ...string) ([]byte, error) {
	return r.output(args)
}

func TestExtractAudioNoStream(t *testing.T) {
	ff := NewFFmpegWithRunner("ffmpeg", scriptRunner{
		combined: func(args []string) ([]byte, error) {
			return []byte("Output file #0 does not contain any stream"), errors.New("exit status 1")
		},
	})
	err := ff.ExtractAudio(context.Background(), "in.mp4", "out.wav")
	if !errors.Is(err, ErrNoAudioStream) {
		t.Fatalf("expected ErrNoAudioStream, got %v", err)
	}
}

func TestExtractAudioDecodeError(t *testing.T) {
	ff := NewFFmpegWithRunner("ffmpeg", scriptRunner{
		combined: func(args []string) ([]byte, error) {
			return []byte("in.mp4: Invalid data found when processing input"), errors.New("exit status 1")
		},
	})
	err := ff.ExtractAudio(context.Background(), "in.mp4", "out.wav")
	if err == nil || errors.Is(err, ErrNoAudioStream) {
		t.Fatalf("expected generic extraction error, got %v", err)
	}
	if !strings.Contains(err.Error(), "audio extraction failed") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestDurationParsesDespiteNonZeroExit(t *testing.T) {
	// ffmpeg exits non-zero for null output but still prints the banner.
	ff := NewFFmpegWithRunner("ffmpeg", scriptRunner{
		combined: func(args []string) ([]byte, error) {
			return []byte("Duration: 00:01:00.00"), errors.New("exit status 1")
		},
	})
	got, err := ff.Duration(context.Background(), "audio.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != time.Minute {
		t.Fatalf("Duration = %v, want 1m", got)
	}
}

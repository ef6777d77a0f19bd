package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Runner executes an external command. Injectable so ffmpeg-dependent code
// can be tested without the binary.
type Runner interface {
	// CombinedOutput runs the command and returns stdout and stderr merged.
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
	// Output runs the command and returns stdout only.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, tailLines(stderr.String(), 4))
	}
	return stdout.Bytes(), nil
}

// ErrNoAudioStream is returned when the video container carries no audio.
var ErrNoAudioStream = errors.New("video has no audio stream")

// FFmpeg wraps the ffmpeg binary for the handful of operations the pipeline
// needs: demux, probe, loudness, silence detection, slicing, re-encode.
type FFmpeg struct {
	path   string
	runner Runner
}

func NewFFmpeg(path string) *FFmpeg {
	return &FFmpeg{path: path, runner: execRunner{}}
}

// NewFFmpegWithRunner is used by tests to substitute the command runner.
func NewFFmpegWithRunner(path string, r Runner) *FFmpeg {
	return &FFmpeg{path: path, runner: r}
}

// ExtractAudio demuxes the audio track of videoPath into a mono 16 kHz WAV
// file at wavPath. Any decode failure is fatal to the caller's run.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	out, err := f.runner.CombinedOutput(ctx, f.path,
		"-y", "-i", videoPath,
		"-vn", "-ac", "1", "-ar", "16000",
		"-f", "wav",
		wavPath,
	)
	if err != nil {
		s := string(out)
		if strings.Contains(s, "does not contain any stream") ||
			strings.Contains(s, "Output file is empty") {
			return ErrNoAudioStream
		}
		return fmt.Errorf("audio extraction failed: %w: %s", err, tailLines(s, 4))
	}
	return nil
}

// Duration probes the length of a media file by parsing ffmpeg's banner
// output. ffmpeg exits non-zero for a null output, so the output is parsed
// regardless of the exit status.
func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	out, err := f.runner.CombinedOutput(ctx, f.path, "-i", path, "-f", "null", "-")
	if err != nil && len(out) == 0 {
		return 0, fmt.Errorf("probe failed: %w", err)
	}
	return parseDuration(string(out))
}

// MeanVolume measures the overall loudness of an audio file in dBFS using
// the volumedetect filter.
func (f *FFmpeg) MeanVolume(ctx context.Context, path string) (float64, error) {
	out, err := f.runner.CombinedOutput(ctx, f.path,
		"-i", path, "-af", "volumedetect", "-f", "null", "-")
	if err != nil && len(out) == 0 {
		return 0, fmt.Errorf("volumedetect failed: %w", err)
	}
	return parseMeanVolume(string(out))
}

// SilenceRange is one detected stretch of silence.
type SilenceRange struct {
	Start time.Duration
	End   time.Duration
}

// DetectSilence runs the silencedetect filter and returns the silence
// stretches of at least minLen whose level is below noiseDB.
func (f *FFmpeg) DetectSilence(ctx context.Context, path string, noiseDB float64, minLen time.Duration) ([]SilenceRange, error) {
	out, err := f.runner.CombinedOutput(ctx, f.path,
		"-i", path,
		"-af", fmt.Sprintf("silencedetect=noise=%.1fdB:d=%.2f", noiseDB, minLen.Seconds()),
		"-f", "null", "-")
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("silencedetect failed: %w", err)
	}
	return parseSilence(string(out)), nil
}

// ExtractSlice copies the [start, end) range of wavPath into slicePath as
// 16-bit PCM WAV.
func (f *FFmpeg) ExtractSlice(ctx context.Context, wavPath, slicePath string, start, end time.Duration) error {
	out, err := f.runner.CombinedOutput(ctx, f.path,
		"-y",
		"-i", wavPath,
		"-ss", ffmpegTime(start),
		"-to", ffmpegTime(end),
		"-c:a", "pcm_s16le",
		slicePath,
	)
	if err != nil {
		return fmt.Errorf("slice extraction failed: %w: %s", err, tailLines(string(out), 4))
	}
	return nil
}

// EncodeFLAC re-encodes an audio file into an in-memory FLAC buffer, the
// canonical container sent to the recognition service.
func (f *FFmpeg) EncodeFLAC(ctx context.Context, path string) ([]byte, error) {
	out, err := f.runner.Output(ctx, f.path,
		"-i", path,
		"-ac", "1", "-ar", "16000",
		"-f", "flac", "-")
	if err != nil {
		return nil, fmt.Errorf("flac encoding failed: %w", err)
	}
	return out, nil
}

var (
	durationRe   = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?[\d.]+)\s*dB`)
	silStartRe   = regexp.MustCompile(`silence_start:\s*([\d.]+)`)
	silEndRe     = regexp.MustCompile(`silence_end:\s*([\d.]+)`)
)

// parseDuration extracts "Duration: HH:MM:SS.cc" from ffmpeg stderr.
func parseDuration(output string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(output)
	if m == nil {
		return 0, errors.New("could not parse duration from ffmpeg output")
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	frac, _ := strconv.Atoi(m[4])
	ms := frac
	switch len(m[4]) {
	case 1:
		ms = frac * 100
	case 2:
		ms = frac * 10
	}
	return time.Duration(h)*time.Hour +
		time.Duration(min)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

func parseMeanVolume(output string) (float64, error) {
	m := meanVolumeRe.FindStringSubmatch(output)
	if m == nil {
		return 0, errors.New("could not parse mean volume from ffmpeg output")
	}
	return strconv.ParseFloat(m[1], 64)
}

// parseSilence pairs silence_start/silence_end lines from silencedetect
// output. An unmatched trailing start (silence running to end of file) is
// dropped here; the segmenter treats end-of-file as a boundary anyway.
func parseSilence(output string) []SilenceRange {
	var ranges []SilenceRange
	var start time.Duration
	haveStart := false
	for _, line := range strings.Split(output, "\n") {
		if m := silStartRe.FindStringSubmatch(line); m != nil {
			if sec, err := strconv.ParseFloat(m[1], 64); err == nil {
				start = time.Duration(sec * float64(time.Second))
				haveStart = true
			}
			continue
		}
		if m := silEndRe.FindStringSubmatch(line); m != nil && haveStart {
			if sec, err := strconv.ParseFloat(m[1], 64); err == nil {
				ranges = append(ranges, SilenceRange{
					Start: start,
					End:   time.Duration(sec * float64(time.Second)),
				})
				haveStart = false
			}
		}
	}
	return ranges
}

func ffmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

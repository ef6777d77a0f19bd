package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"video-transcriber/pkg/config"
	"video-transcriber/pkg/media"
)

// Segment is one ordered slice of the extracted audio, written to its own
// WAV file inside the job's working directory.
type Segment struct {
	Path  string
	Index int
	Start time.Duration
	End   time.Duration
}

func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// Splitter partitions a waveform file into ordered segments.
type Splitter interface {
	Split(ctx context.Context, wavPath, workDir string, chunk time.Duration) ([]Segment, error)
}

// ErrNoSegments is returned when splitting produces nothing to transcribe.
var ErrNoSegments = errors.New("audio produced no segments")

// FixedSplitter slices the waveform into chunk-length pieces, the last one
// shorter when the total length is not an exact multiple.
type FixedSplitter struct {
	ff *media.FFmpeg
}

func NewFixedSplitter(ff *media.FFmpeg) *FixedSplitter {
	return &FixedSplitter{ff: ff}
}

func (fs *FixedSplitter) Split(ctx context.Context, wavPath, workDir string, chunk time.Duration) ([]Segment, error) {
	total, err := fs.ff.Duration(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	bounds := fixedBoundaries(total, chunk)
	return fs.extract(ctx, wavPath, workDir, bounds)
}

func (fs *FixedSplitter) extract(ctx context.Context, wavPath, workDir string, bounds []Boundary) ([]Segment, error) {
	if len(bounds) == 0 {
		return nil, ErrNoSegments
	}
	segments := make([]Segment, 0, len(bounds))
	for i, b := range bounds {
		path := filepath.Join(workDir, fmt.Sprintf("segment_%03d.wav", i))
		if err := fs.ff.ExtractSlice(ctx, wavPath, path, b.Start, b.End); err != nil {
			return nil, err
		}
		segments = append(segments, Segment{Path: path, Index: i, Start: b.Start, End: b.End})
	}
	return segments, nil
}

// SilenceSplitter cuts at detected silence gaps, keeping a padding of
// silence at segment boundaries. When silence detection degenerates to a
// single segment or fails, it falls back to fixed-length slicing.
type SilenceSplitter struct {
	ff       *media.FFmpeg
	cfg      config.SegmenterConfig
	fallback *FixedSplitter
	log      zerolog.Logger
}

func NewSilenceSplitter(ff *media.FFmpeg, cfg config.SegmenterConfig, log zerolog.Logger) *SilenceSplitter {
	return &SilenceSplitter{
		ff:       ff,
		cfg:      cfg,
		fallback: NewFixedSplitter(ff),
		log:      log,
	}
}

func (ss *SilenceSplitter) Split(ctx context.Context, wavPath, workDir string, chunk time.Duration) ([]Segment, error) {
	bounds, err := ss.silenceBoundaries(ctx, wavPath)
	if err != nil {
		ss.log.Warn().Err(err).Msg("silence detection failed, using fixed-length slicing")
		return ss.fallback.Split(ctx, wavPath, workDir, chunk)
	}
	// A single segment means no usable silence was found; fixed slicing
	// gives the recognizer chunks it can actually handle.
	if len(bounds) <= 1 {
		ss.log.Debug().Int("segments", len(bounds)).Msg("silence split degenerated, using fixed-length slicing")
		return ss.fallback.Split(ctx, wavPath, workDir, chunk)
	}
	segments, err := ss.fallback.extract(ctx, wavPath, workDir, bounds)
	if err != nil {
		ss.log.Warn().Err(err).Msg("silence-based slicing failed, using fixed-length slicing")
		return ss.fallback.Split(ctx, wavPath, workDir, chunk)
	}
	return segments, nil
}

func (ss *SilenceSplitter) silenceBoundaries(ctx context.Context, wavPath string) ([]Boundary, error) {
	total, err := ss.ff.Duration(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	mean, err := ss.ff.MeanVolume(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	threshold := mean - ss.cfg.ThresholdOffsetDB
	silences, err := ss.ff.DetectSilence(ctx, wavPath, threshold, ss.cfg.MinSilence)
	if err != nil {
		return nil, err
	}
	return silenceBoundaries(silences, total, ss.cfg.KeepSilence), nil
}

// Boundary is a half-open [Start, End) range within the waveform.
type Boundary struct {
	Start time.Duration
	End   time.Duration
}

// fixedBoundaries computes chunk-length ranges covering [0, total).
func fixedBoundaries(total, chunk time.Duration) []Boundary {
	if total <= 0 || chunk <= 0 {
		return nil
	}
	var bounds []Boundary
	for start := time.Duration(0); start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}
		bounds = append(bounds, Boundary{Start: start, End: end})
	}
	return bounds
}

// silenceBoundaries converts detected silence ranges into the complementary
// non-silent ranges, each widened by keep on both sides (clamped to the
// clip) so words at the edges are not clipped.
func silenceBoundaries(silences []media.SilenceRange, total, keep time.Duration) []Boundary {
	if total <= 0 {
		return nil
	}
	var bounds []Boundary
	cursor := time.Duration(0)
	for _, sil := range silences {
		if sil.Start > cursor {
			bounds = append(bounds, Boundary{Start: cursor, End: sil.Start})
		}
		if sil.End > cursor {
			cursor = sil.End
		}
	}
	if cursor < total {
		bounds = append(bounds, Boundary{Start: cursor, End: total})
	}
	for i := range bounds {
		bounds[i].Start -= keep
		if bounds[i].Start < 0 {
			bounds[i].Start = 0
		}
		bounds[i].End += keep
		if bounds[i].End > total {
			bounds[i].End = total
		}
	}
	return bounds
}

// Package pipeline runs the transcription pipeline: extract audio, split it
// into segments, recognize each segment, assemble the transcript, render
// subtitles. Stages run strictly in order and one job is processed at a
// time; per-segment recognition failures degrade the transcript instead of
// aborting the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"video-transcriber/pkg/audio"
	"video-transcriber/pkg/config"
	"video-transcriber/pkg/media"
	"video-transcriber/pkg/models"
	"video-transcriber/pkg/storage"
	"video-transcriber/pkg/subtitle"
	"video-transcriber/pkg/transcribe"
	"video-transcriber/pkg/transcript"
)

// Extractor demuxes a video's audio track into a waveform file.
type Extractor interface {
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
}

// Submission pairs a job record with the uploaded video bytes. The bytes
// live only in the queue; the job store never sees them.
type Submission struct {
	Job   *models.Job
	Video []byte
}

var (
	ErrQueueFull    = errors.New("pipeline queue is full")
	ErrShuttingDown = errors.New("pipeline is shutting down")
)

// Runner drains the submission queue with a single worker so runs never
// overlap and temp files have exclusive owners.
type Runner struct {
	cfg        *config.Config
	jobs       storage.JobStore
	results    storage.ResultStore
	extractor  Extractor
	splitter   audio.Splitter
	recognizer transcribe.Recognizer
	throttle   *transcribe.Throttle
	log        zerolog.Logger

	queue  chan Submission
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(
	cfg *config.Config,
	jobs storage.JobStore,
	results storage.ResultStore,
	extractor Extractor,
	splitter audio.Splitter,
	recognizer transcribe.Recognizer,
	throttle *transcribe.Throttle,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		cfg:        cfg,
		jobs:       jobs,
		results:    results,
		extractor:  extractor,
		splitter:   splitter,
		recognizer: recognizer,
		throttle:   throttle,
		log:        log,
		queue:      make(chan Submission, cfg.Pipeline.QueueSize),
	}
}

func (r *Runner) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run()
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Submit queues a job. It never blocks: a full queue is reported to the
// caller instead.
func (r *Runner) Submit(sub Submission) error {
	select {
	case <-r.ctx.Done():
		return ErrShuttingDown
	default:
	}
	select {
	case r.queue <- sub:
		r.log.Info().Str("job_id", sub.Job.ID).Str("filename", sub.Job.Filename).Msg("job queued")
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) run() {
	defer r.wg.Done()
	for {
		select {
		case sub := <-r.queue:
			r.process(r.ctx, sub)
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Runner) process(ctx context.Context, sub Submission) {
	job := sub.Job
	log := r.log.With().Str("job_id", job.ID).Logger()
	started := time.Now()

	workDir, err := os.MkdirTemp(r.cfg.StoragePath, "job-")
	if err != nil {
		r.fail(job.ID, fmt.Sprintf("could not create working directory: %v", err))
		return
	}
	// Cleanup always runs; its errors are deliberately swallowed.
	defer os.RemoveAll(workDir)

	videoPath := filepath.Join(workDir, "input"+strings.ToLower(filepath.Ext(job.Filename)))
	if err := os.WriteFile(videoPath, sub.Video, 0o644); err != nil {
		r.fail(job.ID, fmt.Sprintf("could not stage uploaded video: %v", err))
		return
	}

	r.progress(job.ID, models.StatusExtracting, 10, "extracting audio from video")
	wavPath := filepath.Join(workDir, "audio.wav")
	if err := r.extractor.ExtractAudio(ctx, videoPath, wavPath); err != nil {
		log.Error().Err(err).Msg("audio extraction failed")
		r.fail(job.ID, extractionMessage(err))
		return
	}

	r.progress(job.ID, models.StatusSegmenting, 20, "splitting audio into segments")
	chunk := time.Duration(job.ChunkSeconds) * time.Second
	segments, err := r.splitter.Split(ctx, wavPath, workDir, chunk)
	if err != nil {
		log.Error().Err(err).Msg("segmentation failed")
		r.fail(job.ID, fmt.Sprintf("failed to split the audio: %v", err))
		return
	}
	if len(segments) == 0 {
		r.fail(job.ID, "failed to split the audio: no segments produced")
		return
	}
	log.Info().Int("segments", len(segments)).Msg("audio segmented")

	parts := make([]string, 0, len(segments))
	total := len(segments)
	for i, seg := range segments {
		if ctx.Err() != nil {
			r.fail(job.ID, "processing canceled")
			return
		}
		r.progress(job.ID, models.StatusRecognizing, 30+60*i/total,
			fmt.Sprintf("transcribing segment %d of %d", i+1, total))

		text, err := r.recognizer.Recognize(ctx, seg.Path, job.Language)
		if err != nil {
			// Non-fatal: the segment contributes nothing and the
			// run continues.
			log.Warn().Err(err).Int("segment", seg.Index).Msg("segment recognition failed")
			text = ""
		}
		if t := strings.TrimSpace(text); t != "" {
			parts = append(parts, t)
		}

		if err := r.throttle.Pause(ctx); err != nil {
			r.fail(job.ID, "processing canceled")
			return
		}
	}

	r.progress(job.ID, models.StatusAssembling, 95, "assembling final transcript")
	full, err := transcript.Assemble(parts)
	if err != nil {
		log.Info().Msg("no recognizable speech in any segment")
		r.fail(job.ID, "no text found in the video")
		return
	}

	result := &models.Result{
		Transcript:   full,
		Subtitles:    subtitle.Render(full, chunk),
		WordCount:    transcript.WordCount(full),
		CharCount:    transcript.CharCount(full),
		ChunkSeconds: job.ChunkSeconds,
		CompletedAt:  time.Now(),
	}

	if err := r.results.Store(&storage.StoredResult{
		JobID:    job.ID,
		Filename: job.Filename,
		Result:   *result,
	}); err != nil {
		log.Error().Err(err).Msg("failed to persist result")
		r.fail(job.ID, fmt.Sprintf("failed to store the result: %v", err))
		return
	}

	_ = r.jobs.Update(job.ID, func(j *models.Job) {
		j.Status = models.StatusCompleted
		j.Progress = 100
		j.Stage = "done"
		j.Result = result
	})
	log.Info().
		Int("words", result.WordCount).
		Dur("elapsed", time.Since(started)).
		Msg("job completed")
}

func (r *Runner) progress(jobID string, status models.JobStatus, pct int, stage string) {
	_ = r.jobs.Update(jobID, func(j *models.Job) {
		j.Status = status
		j.Progress = pct
		j.Stage = stage
	})
}

func (r *Runner) fail(jobID, msg string) {
	_ = r.jobs.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusFailed
		j.Error = msg
	})
}

func extractionMessage(err error) string {
	if errors.Is(err, media.ErrNoAudioStream) {
		return "the video does not contain an audio track"
	}
	return fmt.Sprintf("failed to extract audio: %v", err)
}

package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusExtracting  JobStatus = "extracting"
	StatusSegmenting  JobStatus = "segmenting"
	StatusRecognizing JobStatus = "recognizing"
	StatusAssembling  JobStatus = "assembling"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Job tracks one transcription run from upload to result.
type Job struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Language     string    `json:"language"`
	ChunkSeconds int       `json:"chunk_seconds"`
	Size         int64     `json:"size"`
	SubmittedAt  time.Time `json:"submitted_at"`

	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	Stage    string    `json:"stage,omitempty"`
	Error    string    `json:"error,omitempty"`

	Result *Result `json:"result,omitempty"`
}

// Result is the terminal artifact of a completed job.
type Result struct {
	Transcript   string    `json:"transcript"`
	Subtitles    string    `json:"subtitles"`
	WordCount    int       `json:"word_count"`
	CharCount    int       `json:"char_count"`
	ChunkSeconds int       `json:"chunk_seconds"`
	CompletedAt  time.Time `json:"completed_at"`
}

func NewJob(filename, language string, chunkSeconds int, size int64) *Job {
	return &Job{
		ID:           uuid.New().String(),
		Filename:     filename,
		Language:     language,
		ChunkSeconds: chunkSeconds,
		Size:         size,
		SubmittedAt:  time.Now(),
		Status:       StatusQueued,
	}
}

// Stem returns the uploaded filename without its extension, used for the
// download filenames (<stem>_transcript.txt, <stem>_subtitles.srt).
func (j *Job) Stem() string {
	return FileStem(j.Filename)
}

func FileStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

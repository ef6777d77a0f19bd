package storage

import (
	"errors"
	"testing"
	"time"

	"video-transcriber/pkg/models"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	defer store.Close()

	res := &StoredResult{
		JobID:    "job-1",
		Filename: "talk.mp4",
		Result: models.Result{
			Transcript:   "hello world",
			Subtitles:    "1\n00:00:00,000 --> 00:00:30,000\nhello world.\n\n",
			WordCount:    2,
			CharCount:    11,
			ChunkSeconds: 30,
			CompletedAt:  time.Now(),
		},
	}
	if err := store.Store(res); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "talk.mp4" || got.Result.Transcript != "hello world" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDiskStoreMissing(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	defer store.Close()

	if _, err := store.Get("nope"); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("err = %v, want ErrResultNotFound", err)
	}
}

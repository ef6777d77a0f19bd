package storage

import (
	"errors"
	"testing"
	"time"

	"video-transcriber/pkg/models"
)

func TestMemoryStoreSaveGet(t *testing.T) {
	s := NewMemoryStore()
	job := models.NewJob("talk.mp4", "en-US", 30, 1024)
	if err := s.Save(job); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "talk.mp4" || got.Status != models.StatusQueued {
		t.Fatalf("unexpected job: %+v", got)
	}

	// Get must return a snapshot, not the stored pointer.
	got.Progress = 99
	again, _ := s.Get(job.ID)
	if again.Progress == 99 {
		t.Fatal("Get leaked a mutable reference")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
	if err := s.Update("nope", func(*models.Job) {}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("Update err = %v, want ErrJobNotFound", err)
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryStore()
	job := models.NewJob("talk.mp4", "en-US", 30, 1024)
	_ = s.Save(job)

	err := s.Update(job.ID, func(j *models.Job) {
		j.Status = models.StatusRecognizing
		j.Progress = 45
		j.Stage = "transcribing segment 2 of 4"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := s.Get(job.ID)
	if got.Status != models.StatusRecognizing || got.Progress != 45 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	older := models.NewJob("a.mp4", "en-US", 30, 1)
	older.SubmittedAt = time.Now().Add(-time.Hour)
	newer := models.NewJob("b.mp4", "en-US", 30, 1)
	_ = s.Save(older)
	_ = s.Save(newer)

	jobs := s.List()
	if len(jobs) != 2 {
		t.Fatalf("List returned %d jobs", len(jobs))
	}
	if jobs[0].ID != newer.ID {
		t.Fatalf("List order wrong: %s first", jobs[0].Filename)
	}
}

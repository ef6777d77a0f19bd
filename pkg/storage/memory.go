package storage

import (
	"errors"
	"sort"
	"sync"

	"video-transcriber/pkg/models"
)

var ErrJobNotFound = errors.New("job not found")

// JobStore holds live job state for status polling. Jobs are mutated only
// through Update so readers always see a consistent snapshot.
type JobStore interface {
	Save(job *models.Job) error
	Get(id string) (*models.Job, error)
	Update(id string, fn func(*models.Job)) error
	List() []*models.Job
}

type memoryStore struct {
	jobs map[string]*models.Job
	mu   sync.RWMutex
}

func NewMemoryStore() JobStore {
	return &memoryStore{jobs: make(map[string]*models.Job)}
}

func (s *memoryStore) Save(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *memoryStore) Get(id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *memoryStore) Update(id string, fn func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	return nil
}

func (s *memoryStore) List() []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		clone := *job
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"video-transcriber/pkg/models"
)

var ErrResultNotFound = errors.New("result not found")

// StoredResult is the durable record of a completed job, enough to serve
// the transcript and subtitle downloads after the job leaves memory.
type StoredResult struct {
	JobID    string        `json:"job_id"`
	Filename string        `json:"filename"`
	Result   models.Result `json:"result"`
}

// ResultStore persists completed transcription results.
type ResultStore interface {
	Store(res *StoredResult) error
	Get(jobID string) (*StoredResult, error)
	Close() error
}

type diskStore struct {
	db *badger.DB
}

func NewDiskStore(path string) (ResultStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(path, "badger"))
	opts.Logger = nil // badger's own logging is noise here

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &diskStore{db: db}, nil
}

func (s *diskStore) Store(res *StoredResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(res.JobID), data)
	})
}

func (s *diskStore) Get(jobID string) (*StoredResult, error) {
	var res StoredResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(jobID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &res, nil
}

func (s *diskStore) Close() error {
	return s.db.Close()
}

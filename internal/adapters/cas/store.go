// Package cas records the content digests of environment faces in a lock file.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

// LockFileName is the name of the lock file kept next to skybox.yaml.
const LockFileName = "skybox.lock"

// Record is the digest of one environment's faces when it was last locked.
type Record struct {
	Key      string    `json:"key"`
	Digest   string    `json:"digest"`
	LockedAt time.Time `json:"lockedAt"`
}

// Status compares a digest against the lock.
type Status string

const (
	// StatusNew means the key has no record.
	StatusNew Status = "new"
	// StatusUnchanged means the digest matches the record.
	StatusUnchanged Status = "unchanged"
	// StatusChanged means the digest differs from the record.
	StatusChanged Status = "changed"
)

// Store implements a lock of face digests using a flat JSON file.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]Record
}

// NewStore creates a Store backed by the file at the given path. A missing
// file is an empty lock.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]Record),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the lock file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read lock file")
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal lock file"), "path", s.path)
	}

	return nil
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.cache, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(err, "failed to marshal lock file")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write lock file"), "path", s.path)
	}

	return nil
}

// Get retrieves the record for key, or nil when there is none.
func (s *Store) Get(key string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.cache[key]
	if !ok {
		return nil
	}
	return &rec
}

// Compare reports how digest relates to the record for key.
func (s *Store) Compare(key, digest string) Status {
	rec := s.Get(key)
	switch {
	case rec == nil:
		return StatusNew
	case rec.Digest == digest:
		return StatusUnchanged
	default:
		return StatusChanged
	}
}

// Put stores the records and writes the lock file once.
func (s *Store) Put(records ...Record) error {
	// Update cache first
	s.mu.Lock()
	for _, rec := range records {
		s.cache[rec.Key] = rec
	}
	s.mu.Unlock()

	// Then save to disk
	return s.save()
}

// Prune drops records whose key is not in keep and reports how many were
// removed. The file is not written.
func (s *Store) Prune(keep []string) int {
	wanted := make(map[string]struct{}, len(keep))
	for _, key := range keep {
		wanted[key] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.cache {
		if _, ok := wanted[key]; !ok {
			delete(s.cache, key)
			removed++
		}
	}
	return removed
}

package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	FileName     = ".metadata.json"
	lockFileName = ".metadata.json.lock"
)

// JSONStore keeps metadata in a single JSON document next to the uploads.
// Every read-modify-write holds an exclusive lock on a sidecar lock file so
// concurrent requests (or processes) no longer lose each other's updates.
type JSONStore struct {
	dir  string
	path string
	lock *flock.Flock
	// flock is re-entrant within a process, so goroutines also need a mutex
	mu sync.Mutex
}

var _ Store = (*JSONStore)(nil)

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		dir:  dir,
		path: filepath.Join(dir, FileName),
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}
}

func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) All() (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("metadata lock: %w", err)
	}
	defer s.lock.Unlock()

	return s.read(), nil
}

func (s *JSONStore) Get(name string) (Entry, bool, error) {
	entries, err := s.All()
	if err != nil {
		return Entry{}, false, err
	}
	entry, ok := entries[name]
	return entry, ok, nil
}

func (s *JSONStore) Put(name string, entry Entry) error {
	return s.update(func(entries map[string]Entry) bool {
		entries[name] = entry
		return true
	})
}

func (s *JSONStore) Delete(name string) error {
	return s.update(func(entries map[string]Entry) bool {
		if _, ok := entries[name]; !ok {
			return false
		}
		delete(entries, name)
		return true
	})
}

func (s *JSONStore) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("metadata lock: %w", err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("metadata wipe: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return s.lock.Close()
}

func (s *JSONStore) update(fn func(map[string]Entry) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("metadata lock: %w", err)
	}
	defer s.lock.Unlock()

	entries := s.read()
	if !fn(entries) {
		return nil
	}
	return s.write(entries)
}

// read must be called with the lock held
func (s *JSONStore) read() map[string]Entry {
	entries := make(map[string]Entry)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("metadata read failed", "path", s.path, "error", err)
		}
		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("metadata malformed, starting empty", "path", s.path, "error", err)
		return make(map[string]Entry)
	}
	return entries
}

// write must be called with the exclusive lock held
func (s *JSONStore) write(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata encode: %w", err)
	}

	tmp := filepath.Join(s.dir, ".metadata."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("metadata write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("metadata write: %w", err)
	}
	return nil
}

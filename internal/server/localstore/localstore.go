package localstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/filedrop/internal/utils"
)

const (
	// ConvertedDir holds images produced by the converter
	ConvertedDir = "converted"

	// hidden files (metadata sidecar, lock, temp files) never show up in listings
	hiddenPrefix = "."
)

// LocalStore is the flat upload directory on disk
type LocalStore struct {
	root          string
	convertedRoot string
}

func New(root string) (*LocalStore, error) {
	absRoot, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir %q: %w", root, err)
	}

	convertedRoot := filepath.Join(absRoot, ConvertedDir)
	for _, dir := range []string{absRoot, convertedRoot} {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &LocalStore{
		root:          absRoot,
		convertedRoot: convertedRoot,
	}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

// List returns the names of regular files in the upload root
func (s *LocalStore) List() (mapset.Set[string], error) {
	return listDir(s.root)
}

// ListConverted returns the names of files in the converted namespace
func (s *LocalStore) ListConverted() (mapset.Set[string], error) {
	return listDir(s.convertedRoot)
}

func (s *LocalStore) Exists(name string) bool {
	path, err := s.path(s.root, name)
	if err != nil {
		return false
	}
	return utils.FileExists(path)
}

// SizeOf returns the on-disk size; false if the file does not exist
func (s *LocalStore) SizeOf(name string) (int64, bool) {
	path, err := s.path(s.root, name)
	if err != nil {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}

// Save writes r to name, replacing any existing file, and returns the number
// of bytes written.
func (s *LocalStore) Save(name string, r io.Reader) (int64, error) {
	return s.save(s.root, name, r)
}

func (s *LocalStore) Read(name string) ([]byte, error) {
	f, _, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Open opens a stored file for streaming. Callers must close it.
func (s *LocalStore) Open(name string) (*os.File, os.FileInfo, error) {
	return s.open(s.root, name)
}

func (s *LocalStore) Delete(name string) error {
	path, err := s.path(s.root, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	slog.Debug("local delete", "name", name)
	return nil
}

// DeleteAll removes every listed file and returns the names it removed.
// Failures are logged and skipped.
func (s *LocalStore) DeleteAll() ([]string, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	deleted := make([]string, 0, names.Cardinality())
	for _, name := range mapset.Sorted(names) {
		if err := s.Delete(name); err != nil {
			slog.Warn("local delete failed", "name", name, "error", err)
			continue
		}
		deleted = append(deleted, name)
	}
	return deleted, nil
}

func (s *LocalStore) SaveConverted(name string, r io.Reader) (int64, error) {
	return s.save(s.convertedRoot, name, r)
}

func (s *LocalStore) OpenConverted(name string) (*os.File, os.FileInfo, error) {
	return s.open(s.convertedRoot, name)
}

func (s *LocalStore) path(dir, name string) (string, error) {
	if !IsSafeName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(dir, name), nil
}

func (s *LocalStore) open(dir, name string) (*os.File, os.FileInfo, error) {
	path, err := s.path(dir, name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, fmt.Errorf("open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, info, nil
}

// save writes through a hidden temp file so that a failed write never leaves
// a truncated file under the final name.
func (s *LocalStore) save(dir, name string, r io.Reader) (int64, error) {
	path, err := s.path(dir, name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, hiddenPrefix+name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename %s: %w", name, err)
	}

	slog.Debug("local save", "name", name, "size", n)
	return n, nil
}

func listDir(dir string) (mapset.Set[string], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mapset.NewSet[string](), nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := mapset.NewSetWithSize[string](len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, hiddenPrefix) || !entry.Type().IsRegular() {
			continue
		}
		names.Add(name)
	}
	return names, nil
}

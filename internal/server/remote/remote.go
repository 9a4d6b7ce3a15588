package remote

import (
	"context"
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// Store is a content-versioned object store that mirrors the upload folder.
// Implementations never panic on transport or API faults; they report them
// as error values or false results.
type Store interface {
	// Backend names the implementation for logs and status messages
	Backend() string

	// Configured is false when the store was built without credentials.
	// Every other method then returns ErrNotConfigured or an empty result.
	Configured() bool

	// Exists returns the current version token (sha/etag) of name
	Exists(ctx context.Context, name string) (string, bool)

	// Put creates name or, if it already exists, updates it against the
	// version token observed just before the write.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes name. An absent object yields ErrNotFound, which is a
	// different outcome from a failed delete.
	Delete(ctx context.Context, name string) error

	// List returns the file names in the remote folder. On failure the set
	// is empty and the fault is returned and logged.
	List(ctx context.Context) (mapset.Set[string], error)

	// Fetch returns the content of name
	Fetch(ctx context.Context, name string) ([]byte, bool)
}

// New builds the configured Store. Missing credentials produce a disabled
// store instead of an error.
func New(cfg *Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", BackendGitHub:
		if !cfg.GitHub.Configured() {
			slog.Warn("remote store disabled: github repo or token not set")
			return Disabled(BackendGitHub), nil
		}
		return NewGitHubStore(&cfg.GitHub, cfg.folder()), nil

	case BackendS3:
		if !cfg.S3.Configured() {
			slog.Warn("remote store disabled: s3 bucket or credentials not set")
			return Disabled(BackendS3), nil
		}
		return NewS3Store(&cfg.S3, cfg.folder())

	case BackendMemory:
		return NewMemoryStore(), nil
	}

	return nil, fmt.Errorf("unknown remote backend %q", cfg.Backend)
}

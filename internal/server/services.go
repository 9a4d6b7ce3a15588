package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmined/filedrop/internal/server/files"
	"github.com/openmined/filedrop/internal/server/imageconv"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/metadata"
	"github.com/openmined/filedrop/internal/server/reconcile"
	"github.com/openmined/filedrop/internal/server/registry"
	"github.com/openmined/filedrop/internal/server/remote"
)

type Services struct {
	Local      *localstore.LocalStore
	Metadata   metadata.Store
	Remote     remote.Store
	Policy     *localstore.Policy
	Files      *files.Service
	Registry   *registry.Registry
	Reconciler *reconcile.Reconciler
	Converter  *imageconv.Converter
}

func NewServices(config *Config) (*Services, error) {
	local, err := localstore.New(config.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("open upload dir: %w", err)
	}

	meta, err := metadata.New(config.Storage.MetadataBackend, local.Root())
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	rem, err := remote.New(&config.Remote)
	if err != nil {
		_ = meta.Close()
		return nil, fmt.Errorf("create remote store: %w", err)
	}

	policy := localstore.NewPolicy(
		config.Storage.AllowedExtensions,
		config.Storage.MaxVideoSize,
		config.Storage.MaxUploadSize,
	)

	return &Services{
		Local:      local,
		Metadata:   meta,
		Remote:     rem,
		Policy:     policy,
		Files:      files.NewService(local, rem, meta, policy),
		Registry:   registry.New(local, rem, meta),
		Reconciler: reconcile.New(local, rem, meta),
		Converter:  imageconv.NewConverter(local),
	}, nil
}

func (s *Services) Start(ctx context.Context) error {
	slog.Info("services start",
		"upload_dir", s.Local.Root(),
		"remote", s.Remote.Backend(),
		"remote_configured", s.Remote.Configured(),
	)

	// an unreachable remote is not fatal, it only degrades the listing
	if s.Remote.Configured() {
		if _, err := s.Remote.List(ctx); err != nil {
			slog.Warn("remote store unreachable at startup", "error", err)
		}
	}
	return nil
}

func (s *Services) Shutdown(ctx context.Context) error {
	if err := s.Metadata.Close(); err != nil {
		return fmt.Errorf("close metadata store: %w", err)
	}
	return nil
}

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/metadata"
	"github.com/openmined/filedrop/internal/server/remote"
)

// FileRecord is the merged view of one name across the local directory,
// the remote folder and the metadata store.
type FileRecord struct {
	Name            string     `json:"name"`
	PresentLocally  bool       `json:"presentLocally"`
	PresentRemotely bool       `json:"presentRemotely"`
	UploadTime      *time.Time `json:"uploadTime,omitempty"`
	SizeBytes       *int64     `json:"sizeBytes,omitempty"`
	Extension       string     `json:"extension"`
}

type LocalSource interface {
	List() (mapset.Set[string], error)
	SizeOf(name string) (int64, bool)
}

type RemoteSource interface {
	List(ctx context.Context) (mapset.Set[string], error)
}

type MetadataSource interface {
	All() (map[string]metadata.Entry, error)
}

type Registry struct {
	local  LocalSource
	remote RemoteSource
	meta   MetadataSource
}

func New(local LocalSource, remote RemoteSource, meta MetadataSource) *Registry {
	return &Registry{
		local:  local,
		remote: remote,
		meta:   meta,
	}
}

// List composes the three listings into sorted records. Only a failing local
// listing is an error; remote and metadata faults degrade to empty inputs.
func (r *Registry) List(ctx context.Context, key SortKey) ([]FileRecord, error) {
	localNames, err := r.local.List()
	if err != nil {
		return nil, fmt.Errorf("list local files: %w", err)
	}

	remoteNames, err := r.remote.List(ctx)
	if err != nil && !errors.Is(err, remote.ErrNotConfigured) {
		slog.Warn("registry remote listing unavailable", "error", err)
	}

	entries, err := r.meta.All()
	if err != nil {
		slog.Warn("registry metadata unavailable", "error", err)
		entries = nil
	}

	records := Merge(localNames, remoteNames, entries, r.local.SizeOf)
	Sort(records, key)
	return records, nil
}

// Merge builds one record per name in local ∪ remote. Size comes from the
// local file when present, else from metadata.
func Merge(
	localNames, remoteNames mapset.Set[string],
	entries map[string]metadata.Entry,
	sizeOf func(string) (int64, bool),
) []FileRecord {
	if localNames == nil {
		localNames = mapset.NewSet[string]()
	}
	if remoteNames == nil {
		remoteNames = mapset.NewSet[string]()
	}

	all := localNames.Union(remoteNames)
	records := make([]FileRecord, 0, all.Cardinality())

	for name := range all.Iter() {
		record := FileRecord{
			Name:            name,
			PresentLocally:  localNames.Contains(name),
			PresentRemotely: remoteNames.Contains(name),
			Extension:       localstore.Extension(name),
		}

		entry, hasEntry := entries[name]
		if hasEntry && entry.HasTime() {
			t := entry.UploadTime
			record.UploadTime = &t
		}

		if record.PresentLocally && sizeOf != nil {
			if size, ok := sizeOf(name); ok {
				record.SizeBytes = &size
			}
		}
		if record.SizeBytes == nil && hasEntry && entry.HasSize() {
			size := entry.SizeBytes
			record.SizeBytes = &size
		}

		records = append(records, record)
	}

	return records
}

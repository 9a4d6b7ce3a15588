package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/metadata"
	"github.com/openmined/filedrop/internal/server/remote"
)

type Direction string

const (
	FromRemote    Direction = "from_remote"
	ToRemote      Direction = "to_remote"
	Bidirectional Direction = "both"
)

var ErrInvalidDirection = errors.New("invalid sync direction")

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case FromRemote, ToRemote, Bidirectional:
		return d, nil
	case "":
		return Bidirectional, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Result of one sync direction. Per-file faults are counted, not returned.
type Result struct {
	Direction Direction `json:"direction"`
	OK        bool      `json:"ok"`
	Synced    []string  `json:"synced"`
	Failed    []string  `json:"failed"`
	Skipped   []string  `json:"skipped"`
	Message   string    `json:"message"`
}

func newResult(direction Direction) Result {
	return Result{
		Direction: direction,
		Synced:    []string{},
		Failed:    []string{},
		Skipped:   []string{},
	}
}

type LocalStore interface {
	List() (mapset.Set[string], error)
	Read(name string) ([]byte, error)
	Save(name string, r io.Reader) (int64, error)
}

type MetadataWriter interface {
	Put(name string, entry metadata.Entry) error
}

// Reconciler converges the local directory and the remote folder by name.
// Content is never compared: a name present on both sides is in sync.
type Reconciler struct {
	local  LocalStore
	remote remote.Store
	meta   MetadataWriter
	now    func() time.Time
}

func New(local LocalStore, rem remote.Store, meta MetadataWriter) *Reconciler {
	return &Reconciler{
		local:  local,
		remote: rem,
		meta:   meta,
		now:    time.Now,
	}
}

// SyncFromRemote downloads every name in remote − local
func (r *Reconciler) SyncFromRemote(ctx context.Context) Result {
	res := newResult(FromRemote)

	missing, ok := r.diff(ctx, &res, func(local, rem mapset.Set[string]) mapset.Set[string] {
		return rem.Difference(local)
	})
	if !ok {
		return res
	}

	for _, name := range mapset.Sorted(missing) {
		if !localstore.IsSafeName(name) {
			slog.Warn("sync skipping unsafe remote name", "name", name)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if err := r.pull(ctx, name); err != nil {
			slog.Error("sync from remote", "name", name, "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Synced = append(res.Synced, name)
	}

	return r.finish(res, "from remote")
}

// SyncToRemote uploads every name in local − remote
func (r *Reconciler) SyncToRemote(ctx context.Context) Result {
	res := newResult(ToRemote)

	missing, ok := r.diff(ctx, &res, func(local, rem mapset.Set[string]) mapset.Set[string] {
		return local.Difference(rem)
	})
	if !ok {
		return res
	}

	for _, name := range mapset.Sorted(missing) {
		if err := r.push(ctx, name); err != nil {
			slog.Error("sync to remote", "name", name, "error", err)
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Synced = append(res.Synced, name)
	}

	return r.finish(res, "to remote")
}

// SyncBidirectional pulls first, then pushes. Each direction reports on its own.
func (r *Reconciler) SyncBidirectional(ctx context.Context) []Result {
	return []Result{
		r.SyncFromRemote(ctx),
		r.SyncToRemote(ctx),
	}
}

// Sync dispatches on direction
func (r *Reconciler) Sync(ctx context.Context, direction Direction) []Result {
	switch direction {
	case FromRemote:
		return []Result{r.SyncFromRemote(ctx)}
	case ToRemote:
		return []Result{r.SyncToRemote(ctx)}
	default:
		return r.SyncBidirectional(ctx)
	}
}

// FileDirection resolves the direction for a single-file sync. "both" is
// rejected. An empty value pushes a file that exists locally and pulls
// one that does not.
func (r *Reconciler) FileDirection(name, s string) (Direction, error) {
	if strings.TrimSpace(s) == "" {
		names, err := r.local.List()
		if err == nil && names.Contains(name) {
			return ToRemote, nil
		}
		return FromRemote, nil
	}

	direction, err := ParseDirection(s)
	if err != nil {
		return "", err
	}
	if direction == Bidirectional {
		return "", fmt.Errorf("%w: %q is not allowed for a single file", ErrInvalidDirection, s)
	}
	return direction, nil
}

// SyncOne copies a single name in the given direction, overwriting the
// destination if it already exists.
func (r *Reconciler) SyncOne(ctx context.Context, name string, direction Direction) Result {
	res := newResult(direction)

	if !r.remote.Configured() {
		res.Skipped = []string{name}
		res.Message = "Remote store not configured, sync skipped."
		return res
	}

	var err error
	switch direction {
	case FromRemote:
		if !localstore.IsSafeName(name) {
			err = fmt.Errorf("%w: %q", localstore.ErrInvalidName, name)
			break
		}
		err = r.pull(ctx, name)
	case ToRemote:
		err = r.push(ctx, name)
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	if err != nil {
		slog.Error("sync file", "name", name, "direction", direction, "error", err)
		res.Failed = []string{name}
		res.Message = fmt.Sprintf("Failed to sync %s: %v", name, err)
		return res
	}

	res.OK = true
	res.Synced = []string{name}
	if direction == FromRemote {
		res.Message = fmt.Sprintf("Synced %s from remote.", name)
	} else {
		res.Message = fmt.Sprintf("Synced %s to remote.", name)
	}
	return res
}

func (r *Reconciler) diff(ctx context.Context, res *Result, op func(local, rem mapset.Set[string]) mapset.Set[string]) (mapset.Set[string], bool) {
	if !r.remote.Configured() {
		res.Message = "Remote store not configured, sync skipped."
		return nil, false
	}

	localNames, err := r.local.List()
	if err != nil {
		res.Message = fmt.Sprintf("Could not list local files: %v", err)
		return nil, false
	}

	remoteNames, err := r.remote.List(ctx)
	if err != nil {
		res.Message = fmt.Sprintf("Could not list remote files: %v", err)
		return nil, false
	}

	return op(localNames, remoteNames), true
}

func (r *Reconciler) pull(ctx context.Context, name string) error {
	data, ok := r.remote.Fetch(ctx, name)
	if !ok {
		return fmt.Errorf("fetch %s: %w", name, remote.ErrNotFound)
	}

	n, err := r.local.Save(name, bytes.NewReader(data))
	if err != nil {
		return err
	}

	if err := r.meta.Put(name, metadata.NewEntry(r.now(), n)); err != nil {
		slog.Warn("sync metadata write failed", "name", name, "error", err)
	}
	return nil
}

func (r *Reconciler) push(ctx context.Context, name string) error {
	data, err := r.local.Read(name)
	if err != nil {
		return err
	}
	return r.remote.Put(ctx, name, data)
}

func (r *Reconciler) finish(res Result, where string) Result {
	res.OK = len(res.Failed) == 0

	switch {
	case len(res.Synced) == 0 && len(res.Failed) == 0:
		res.Message = fmt.Sprintf("Nothing to sync %s.", where)
	case len(res.Failed) == 0:
		res.Message = fmt.Sprintf("Synced %d file(s) %s.", len(res.Synced), where)
	default:
		res.Message = fmt.Sprintf("Synced %d file(s) %s, %d failed.", len(res.Synced), where, len(res.Failed))
	}

	if len(res.Skipped) > 0 {
		res.Message += fmt.Sprintf(" Skipped %d unsafe name(s).", len(res.Skipped))
	}

	slog.Info("sync", "direction", res.Direction, "synced", len(res.Synced), "failed", len(res.Failed), "skipped", len(res.Skipped))
	return res
}

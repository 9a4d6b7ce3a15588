package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/metadata"
	"github.com/openmined/filedrop/internal/server/remote"
)

// PeekChars is how much of a file Peek returns
const PeekChars = 1000

// Service implements the user actions on files: every local write records
// metadata and is mirrored to the remote store when one is configured.
type Service struct {
	local  *localstore.LocalStore
	remote remote.Store
	meta   metadata.Store
	policy *localstore.Policy
	now    func() time.Time
}

func NewService(local *localstore.LocalStore, rem remote.Store, meta metadata.Store, policy *localstore.Policy) *Service {
	if policy == nil {
		policy = localstore.DefaultPolicy()
	}
	return &Service{
		local:  local,
		remote: rem,
		meta:   meta,
		policy: policy,
		now:    time.Now,
	}
}

func (s *Service) Local() *localstore.LocalStore { return s.local }
func (s *Service) Policy() *localstore.Policy    { return s.policy }

// Upload sanitizes the name, applies the upload policy, stores the file
// and mirrors it. The result carries the outcome instead of an error.
func (s *Service) Upload(ctx context.Context, filename string, size int64, r io.Reader) UploadResult {
	res := UploadResult{Original: filename}

	name, err := localstore.CleanName(filename)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Name = name

	if err := s.policy.Check(name, size); err != nil {
		res.Error = err.Error()
		return res
	}

	n, err := s.local.Save(name, r)
	if err != nil {
		slog.Error("upload save", "name", name, "error", err)
		res.Error = err.Error()
		return res
	}
	res.Saved = true
	res.Size = n
	s.record(name, n)

	res.Mirror, err = s.mirror(ctx, name)
	if err != nil {
		res.Error = err.Error()
	}

	slog.Info("upload", "name", name, "size", n, "mirror", res.Mirror)
	return res
}

// Create writes a new text file; an existing name is refused
func (s *Service) Create(ctx context.Context, filename, content string) (*WriteResult, error) {
	name, err := localstore.CleanName(filename)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CheckEditable(name); err != nil {
		return nil, err
	}
	if s.local.Exists(name) {
		return nil, fmt.Errorf("%w: %s", localstore.ErrFileExists, name)
	}
	return s.write(ctx, name, content)
}

// Edit replaces the content of an existing local text file
func (s *Service) Edit(ctx context.Context, name, content string) (*WriteResult, error) {
	if !localstore.IsSafeName(name) {
		return nil, fmt.Errorf("%w: %q", localstore.ErrInvalidName, name)
	}
	if err := s.policy.CheckEditable(name); err != nil {
		return nil, err
	}
	if !s.local.Exists(name) {
		return nil, fmt.Errorf("%w: %s", localstore.ErrNotFound, name)
	}
	return s.write(ctx, name, content)
}

func (s *Service) write(ctx context.Context, name, content string) (*WriteResult, error) {
	if err := s.policy.Check(name, int64(len(content))); err != nil {
		return nil, err
	}

	n, err := s.local.Save(name, strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	s.record(name, n)

	res := &WriteResult{Name: name, Size: n}
	res.Mirror, err = s.mirror(ctx, name)
	if err != nil {
		res.MirrorError = err.Error()
	}
	return res, nil
}

// Peek returns up to PeekChars characters of a local file as UTF-8 text.
// Invalid byte sequences are replaced.
func (s *Service) Peek(name string) (*PeekResult, error) {
	f, info, err := s.local.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, PeekChars*utf8.UTFMax))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	text := strings.ToValidUTF8(string(data), string(utf8.RuneError))
	truncated := info.Size() > int64(len(data))
	if utf8.RuneCountInString(text) > PeekChars {
		text = string([]rune(text)[:PeekChars])
		truncated = true
	}

	return &PeekResult{Name: name, Content: text, Truncated: truncated}, nil
}

// Delete removes name from the selected side(s). Absence is reported as
// NotFound, never as a failure.
func (s *Service) Delete(ctx context.Context, name string, target Target) (*DeleteResult, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: %q", localstore.ErrInvalidName, name)
	}

	res := &DeleteResult{Name: name}
	if target.local() {
		res.Local = s.deleteLocal(name)
	}
	if target.remote() {
		res.Remote = s.deleteRemote(ctx, name)
	}
	res.Message = deleteMessage(res)

	slog.Info("delete", "name", name, "target", target, "local", res.Local, "remote", res.Remote)
	return res, nil
}

func (s *Service) deleteLocal(name string) Outcome {
	err := s.local.Delete(name)
	switch {
	case err == nil:
		if err := s.meta.Delete(name); err != nil {
			slog.Warn("metadata delete", "name", name, "error", err)
		}
		return Deleted
	case errors.Is(err, localstore.ErrNotFound), errors.Is(err, localstore.ErrInvalidName):
		return NotFound
	default:
		slog.Error("local delete", "name", name, "error", err)
		return Failed
	}
}

func (s *Service) deleteRemote(ctx context.Context, name string) Outcome {
	if !s.remote.Configured() {
		return Skipped
	}

	err := s.remote.Delete(ctx, name)
	switch {
	case err == nil:
		return Deleted
	case errors.Is(err, remote.ErrNotFound):
		return NotFound
	default:
		slog.Error("remote delete", "name", name, "error", err)
		return Failed
	}
}

// DeleteAll empties the selected side(s). Emptying the local side also
// wipes the metadata store.
func (s *Service) DeleteAll(ctx context.Context, target Target) (*DeleteAllResult, error) {
	res := &DeleteAllResult{}
	var parts []string

	if target.local() {
		before, err := s.local.List()
		if err != nil {
			return nil, fmt.Errorf("list local files: %w", err)
		}
		deleted, err := s.local.DeleteAll()
		if err != nil {
			return nil, err
		}
		if err := s.meta.Wipe(); err != nil {
			slog.Warn("metadata wipe", "error", err)
		}

		res.Local = &SideSummary{
			Deleted: deleted,
			Failed:  mapset.Sorted(before.Difference(mapset.NewSet(deleted...))),
		}
		parts = append(parts, summarize("local", res.Local))
	}

	if target.remote() {
		res.Remote = s.deleteAllRemote(ctx)
		parts = append(parts, summarize("remote", res.Remote))
	}

	res.Message = strings.Join(parts, " ")
	slog.Info("delete all", "target", target, "message", res.Message)
	return res, nil
}

func (s *Service) deleteAllRemote(ctx context.Context) *SideSummary {
	summary := &SideSummary{Deleted: []string{}, Failed: []string{}}
	if !s.remote.Configured() {
		summary.Skipped = true
		return summary
	}

	names, err := s.remote.List(ctx)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}

	for _, name := range mapset.Sorted(names) {
		switch s.deleteRemote(ctx, name) {
		case Deleted, NotFound:
			summary.Deleted = append(summary.Deleted, name)
		default:
			summary.Failed = append(summary.Failed, name)
		}
	}
	return summary
}

func (s *Service) mirror(ctx context.Context, name string) (MirrorStatus, error) {
	if !s.remote.Configured() {
		return MirrorSkipped, nil
	}

	data, err := s.local.Read(name)
	if err != nil {
		return MirrorFailed, err
	}

	if err := s.remote.Put(ctx, name, data); err != nil {
		slog.Error("remote mirror", "name", name, "error", err)
		return MirrorFailed, err
	}
	return Mirrored, nil
}

func (s *Service) record(name string, size int64) {
	if err := s.meta.Put(name, metadata.NewEntry(s.now(), size)); err != nil {
		slog.Warn("metadata write", "name", name, "error", err)
	}
}

func deleteMessage(res *DeleteResult) string {
	var parts []string
	if res.Local != "" {
		parts = append(parts, "local: "+outcomeText(res.Local))
	}
	if res.Remote != "" {
		parts = append(parts, "remote: "+outcomeText(res.Remote))
	}
	return fmt.Sprintf("%s (%s)", res.Name, strings.Join(parts, ", "))
}

func outcomeText(o Outcome) string {
	switch o {
	case NotFound:
		return "not found"
	case Skipped:
		return "skipped, remote not configured"
	}
	return string(o)
}

func summarize(side string, s *SideSummary) string {
	if s.Skipped {
		return fmt.Sprintf("Remote store not configured, %s delete skipped.", side)
	}
	if s.Error != "" {
		return fmt.Sprintf("Could not list %s files: %s.", side, s.Error)
	}
	if len(s.Deleted) == 0 && len(s.Failed) == 0 {
		return fmt.Sprintf("No %s files to delete.", side)
	}
	msg := fmt.Sprintf("Deleted %d %s file(s).", len(s.Deleted), side)
	if len(s.Failed) > 0 {
		msg = fmt.Sprintf("Deleted %d %s file(s), %d failed.", len(s.Deleted), side, len(s.Failed))
	}
	return msg
}

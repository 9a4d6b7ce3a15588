package localstore

import (
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
)

const DefaultMaxVideoSize = 30 << 20 // 30 MiB

var (
	DefaultAllowedExtensions = []string{
		"txt", "py", "pdf", "png", "jpg", "jpeg", "gif", "bmp", "tiff", "webp",
		"doc", "docx", "xls", "xlsx", "zip", "rar", "md", "json", "csv",
		"html", "css", "js", "sh", "yaml", "yml", "xml", "log", "ini", "toml",
		"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv",
	}

	// text formats that may be created or edited inline
	EditableExtensions = mapset.NewSet(
		"txt", "py", "md", "json", "csv", "html", "css", "js", "sh",
		"yaml", "yml", "xml", "log", "ini", "toml",
	)

	VideoExtensions = mapset.NewSet("mp4", "avi", "mov", "wmv", "flv", "webm", "mkv")
)

// Policy decides whether an incoming file may be stored
type Policy struct {
	allowed       mapset.Set[string]
	maxVideoSize  int64
	maxUploadSize int64
}

// NewPolicy builds an upload policy. A zero maxVideoSize falls back to
// DefaultMaxVideoSize; a zero maxUploadSize leaves other types unbounded.
func NewPolicy(allowed []string, maxVideoSize, maxUploadSize int64) *Policy {
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	if maxVideoSize <= 0 {
		maxVideoSize = DefaultMaxVideoSize
	}

	set := mapset.NewSet[string]()
	for _, ext := range allowed {
		set.Add(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
	}

	return &Policy{
		allowed:       set,
		maxVideoSize:  maxVideoSize,
		maxUploadSize: maxUploadSize,
	}
}

func DefaultPolicy() *Policy {
	return NewPolicy(nil, 0, 0)
}

// Allowed returns the sorted allow-list, for user facing messages
func (p *Policy) Allowed() []string {
	exts := p.allowed.ToSlice()
	slices.Sort(exts)
	return exts
}

// CheckName validates the extension of an already sanitized name
func (p *Policy) CheckName(name string) error {
	ext := Extension(name)
	if ext == "" || !p.allowed.Contains(ext) {
		return fmt.Errorf("%w: allowed file types are %s", ErrExtensionNotAllowed, strings.Join(p.Allowed(), ", "))
	}
	return nil
}

// Check validates extension and size of an incoming file
func (p *Policy) Check(name string, size int64) error {
	if err := p.CheckName(name); err != nil {
		return err
	}

	if VideoExtensions.Contains(Extension(name)) && size > p.maxVideoSize {
		return fmt.Errorf("%w: video files are limited to %s", ErrFileTooLarge, humanize.IBytes(uint64(p.maxVideoSize)))
	}

	if p.maxUploadSize > 0 && size > p.maxUploadSize {
		return fmt.Errorf("%w: files are limited to %s", ErrFileTooLarge, humanize.IBytes(uint64(p.maxUploadSize)))
	}

	return nil
}

// CheckEditable validates a name for inline create/edit
func (p *Policy) CheckEditable(name string) error {
	if !EditableExtensions.Contains(Extension(name)) {
		exts := EditableExtensions.ToSlice()
		slices.Sort(exts)
		return fmt.Errorf("%w: only text files can be edited (%s)", ErrExtensionNotAllowed, strings.Join(exts, ", "))
	}
	return p.CheckName(name)
}

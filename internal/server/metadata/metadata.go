package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// accepted upload time layouts, newest writer first
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Entry annotates a stored file. It is never authoritative for existence.
type Entry struct {
	UploadTime time.Time
	SizeBytes  int64
}

func NewEntry(uploadTime time.Time, size int64) Entry {
	return Entry{UploadTime: uploadTime.UTC(), SizeBytes: size}
}

func (e Entry) HasTime() bool {
	return !e.UploadTime.IsZero()
}

func (e Entry) HasSize() bool {
	return e.SizeBytes >= 0
}

type entryJSON struct {
	UploadTime string `json:"uploadTime,omitempty"`
	SizeBytes  *int64 `json:"sizeBytes,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	var out entryJSON
	if e.HasTime() {
		out.UploadTime = e.UploadTime.Format(time.RFC3339Nano)
	}
	if e.HasSize() {
		size := e.SizeBytes
		out.SizeBytes = &size
	}
	return json.Marshal(out)
}

// UnmarshalJSON never fails on a bad field; unreadable values become unknown
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.UploadTime = ParseTime(in.UploadTime)
	e.SizeBytes = -1
	if in.SizeBytes != nil {
		e.SizeBytes = *in.SizeBytes
	}
	return nil
}

// ParseTime parses a stored upload time. The zero time means unknown.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Store persists the name → Entry mapping
type Store interface {
	// All returns every entry. A missing or unreadable backing document is
	// an empty mapping, not an error.
	All() (map[string]Entry, error)
	Get(name string) (Entry, bool, error)
	Put(name string, entry Entry) error
	Delete(name string) error
	// Wipe drops every entry
	Wipe() error
	Close() error
}

// New opens the metadata store for an upload directory
func New(backend string, dir string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(dir), nil
	case BackendSQLite:
		return NewSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", backend)
	}
}

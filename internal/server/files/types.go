package files

import (
	"errors"
	"fmt"
	"strings"
)

// Target selects which side(s) a delete applies to
type Target string

const (
	TargetLocal  Target = "local"
	TargetRemote Target = "remote"
	TargetBoth   Target = "both"
)

var ErrInvalidTarget = errors.New("invalid delete target")

func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetLocal, TargetRemote, TargetBoth:
		return t, nil
	case "":
		return TargetBoth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTarget, s)
}

func (t Target) local() bool  { return t == TargetLocal || t == TargetBoth }
func (t Target) remote() bool { return t == TargetRemote || t == TargetBoth }

// Outcome of a delete on one side
type Outcome string

const (
	Deleted  Outcome = "deleted"
	NotFound Outcome = "not_found"
	Failed   Outcome = "failed"
	Skipped  Outcome = "skipped"
)

// MirrorStatus tells whether a local write reached the remote store
type MirrorStatus string

const (
	Mirrored      MirrorStatus = "mirrored"
	MirrorFailed  MirrorStatus = "failed"
	MirrorSkipped MirrorStatus = "skipped"
)

type UploadResult struct {
	Original string       `json:"original"`
	Name     string       `json:"name,omitempty"`
	Saved    bool         `json:"saved"`
	Size     int64        `json:"size"`
	Mirror   MirrorStatus `json:"mirror,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type WriteResult struct {
	Name        string       `json:"name"`
	Size        int64        `json:"size"`
	Mirror      MirrorStatus `json:"mirror"`
	MirrorError string       `json:"mirrorError,omitempty"`
}

type PeekResult struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

type DeleteResult struct {
	Name    string  `json:"name"`
	Local   Outcome `json:"local,omitempty"`
	Remote  Outcome `json:"remote,omitempty"`
	Message string  `json:"message"`
}

type SideSummary struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
	Skipped bool     `json:"skipped,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type DeleteAllResult struct {
	Local   *SideSummary `json:"local,omitempty"`
	Remote  *SideSummary `json:"remote,omitempty"`
	Message string       `json:"message"`
}

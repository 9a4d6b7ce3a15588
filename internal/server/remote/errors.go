package remote

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("remote store not configured")
	ErrNotFound      = errors.New("remote file not found")
	ErrBadResponse   = errors.New("unexpected remote response")
)

// APIError is a non-2xx answer from the remote store
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("remote %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openmined/filedrop/internal/server/files"
	"github.com/openmined/filedrop/internal/server/imageconv"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/reconcile"
	"github.com/openmined/filedrop/internal/server/remote"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: code=%s, message=%s", e.Code, e.Message)
}

// Classify maps a domain error to an HTTP status and error code
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		return http.StatusNotFound, CodeFileNotFound
	case errors.Is(err, localstore.ErrFileExists):
		return http.StatusConflict, CodeFileExists
	case errors.Is(err, localstore.ErrInvalidName):
		return http.StatusBadRequest, CodeFileInvalidName
	case errors.Is(err, localstore.ErrExtensionNotAllowed):
		return http.StatusUnsupportedMediaType, CodeFileTypeForbidden
	case errors.Is(err, localstore.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, CodeFileTooLarge
	case errors.Is(err, imageconv.ErrUnsupportedFormat):
		return http.StatusBadRequest, CodeUnsupportedFormat
	case errors.Is(err, files.ErrInvalidTarget), errors.Is(err, reconcile.ErrInvalidDirection):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, remote.ErrNotConfigured):
		return http.StatusServiceUnavailable, CodeRemoteNotConfigured
	case errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound, CodeFileNotFound
	}
	return http.StatusInternalServerError, CodeInternalError
}

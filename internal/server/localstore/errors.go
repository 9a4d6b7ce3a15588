package localstore

import "errors"

var (
	ErrInvalidName         = errors.New("invalid file name")
	ErrNotFound            = errors.New("file not found")
	ErrFileExists          = errors.New("file already exists")
	ErrExtensionNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file too large")
)

package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

var textLikeExtensions = map[string]bool{
	".txt": true, ".md": true, ".py": true, ".sh": true,
	".json": true, ".csv": true, ".log": true, ".ini": true,
	".yaml": true, ".yml": true, ".toml": true, ".xml": true,
	".js": true, ".css": true, ".html": true, ".htm": true,
}

// DetectContentType guesses a MIME type from the file extension. Text and
// script files are served as plain text so that a browser previews them
// instead of executing or downloading them.
func DetectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if textLikeExtensions[ext] {
		return "text/plain; charset=utf-8"
	} else if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

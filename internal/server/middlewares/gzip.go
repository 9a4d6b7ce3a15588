package middlewares

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

var (
	excludedPaths = []string{
		"/healthz",
		"/api/v1/files/download",
		"/api/v1/converted/",
	}
	excludedExtensions = []string{
		".png", ".gif", ".jpeg", ".jpg", ".webp", ".bmp", ".tiff",
		".zip", ".rar", ".gz",
		".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv",
		".doc", ".docx", ".xls", ".xlsx", ".pdf",
	}
)

// GZIP compresses pages and JSON; already compressed media and file
// downloads pass through untouched.
func GZIP() gin.HandlerFunc {
	return gzip.Gzip(
		gzip.BestSpeed,
		gzip.WithExcludedPaths(excludedPaths),
		gzip.WithExcludedExtensions(excludedExtensions),
	)
}

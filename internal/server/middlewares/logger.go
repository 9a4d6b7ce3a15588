package middlewares

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"
)

// Logger writes one access log line per request under the "http" group.
// Requests to quietPaths are not logged.
func Logger(quietPaths ...string) gin.HandlerFunc {
	httpLogger := slog.Default().WithGroup("http")

	filters := make([]slogGin.Filter, 0, 1)
	if len(quietPaths) > 0 {
		filters = append(filters, slogGin.IgnorePath(quietPaths...))
	}

	return slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
		Filters:          filters,
	})
}

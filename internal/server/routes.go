package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmined/filedrop/internal/server/handlers/api"
	"github.com/openmined/filedrop/internal/server/handlers/explorer"
	"github.com/openmined/filedrop/internal/server/handlers/files"
	"github.com/openmined/filedrop/internal/server/handlers/imageconv"
	"github.com/openmined/filedrop/internal/server/handlers/reconcile"
	"github.com/openmined/filedrop/internal/server/middlewares"
	"github.com/openmined/filedrop/internal/version"
)

func SetupRoutes(cfg *Config, svc *Services) (http.Handler, error) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = cfg.HTTP.MaxMultipartMemory
	if r.MaxMultipartMemory == 0 {
		r.MaxMultipartMemory = DefaultMaxMultipartMemory
	}

	filesH := files.New(svc.Files, svc.Registry)
	syncH := reconcile.New(svc.Reconciler)
	convertH := imageconv.New(svc.Converter, svc.Local)
	explorerH := explorer.New(svc.Registry, svc.Local, svc.Remote, svc.Policy)

	r.Use(middlewares.Logger("/healthz", "/favicon.ico"))
	r.Use(gin.Recovery())
	r.Use(middlewares.SecureHeaders(cfg.HTTP.TLS()))
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS())

	// mutating routes share one limiter
	mutating := func(c *gin.Context) { c.Next() }
	if cfg.HTTP.RateLimit != "" {
		limiter, err := middlewares.RateLimiter(cfg.HTTP.RateLimit)
		if err != nil {
			return nil, err
		}
		mutating = limiter
	}

	r.GET("/", explorerH.Index)
	r.GET("/healthz", HealthHandler)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/version", VersionHandler)

		// files
		v1.GET("/files", filesH.List)
		v1.POST("/files/upload", mutating, filesH.Upload)
		v1.GET("/files/download/:name", filesH.Download)
		v1.GET("/files/preview/:name", filesH.Preview)
		v1.GET("/files/peek/:name", filesH.Peek)
		v1.POST("/files/create", mutating, filesH.Create)
		v1.POST("/files/edit/:name", mutating, filesH.Edit)
		v1.POST("/files/delete/:name", mutating, filesH.Delete)
		v1.POST("/files/delete-all", mutating, filesH.DeleteAll)

		// sync
		v1.POST("/sync", mutating, syncH.Sync)
		v1.POST("/sync/:name", mutating, syncH.SyncOne)

		// image conversion
		v1.POST("/convert", mutating, convertH.Convert)
		v1.GET("/converted", convertH.List)
		v1.GET("/converted/:name", convertH.Download)
	}

	r.NoRoute(func(c *gin.Context) {
		c.PureJSON(http.StatusNotFound, api.APIError{
			Code:    api.CodeNotFound,
			Message: "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.PureJSON(http.StatusMethodNotAllowed, api.APIError{
			Code:    api.CodeInvalidRequest,
			Message: "method not allowed",
		})
	})

	return r.Handler(), nil
}

func VersionHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"app":     version.AppName,
		"version": version.Version,
		"detail":  version.Detailed(),
	})
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

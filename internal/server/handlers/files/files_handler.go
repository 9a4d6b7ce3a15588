package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openmined/filedrop/internal/server/files"
	"github.com/openmined/filedrop/internal/server/handlers/api"
	"github.com/openmined/filedrop/internal/server/registry"
	"github.com/openmined/filedrop/internal/utils"
)

const (
	fieldFile    = "file"
	fieldName    = "name"
	fieldContent = "content"
	fieldTarget  = "target"
)

type FilesHandler struct {
	svc      *files.Service
	registry *registry.Registry
}

func New(svc *files.Service, reg *registry.Registry) *FilesHandler {
	return &FilesHandler{
		svc:      svc,
		registry: reg,
	}
}

// List returns the merged registry view
func (h *FilesHandler) List(ctx *gin.Context) {
	key := registry.ParseSortKey(ctx.Query("sort"))

	records, err := h.registry.List(ctx.Request.Context(), key)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &ListResponse{
		Sort:  key,
		Files: records,
	})
}

// Upload accepts one or more `file` parts. Each part gets its own outcome;
// the request fails only when no part was saved.
func (h *FilesHandler) Upload(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	parts := form.File[fieldFile]
	if len(parts) == 0 {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeFileNoUpload, errors.New("no file selected"))
		return
	}

	results := make([]files.UploadResult, 0, len(parts))
	saved := 0
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			results = append(results, files.UploadResult{Original: part.Filename, Error: err.Error()})
			continue
		}
		res := h.svc.Upload(ctx.Request.Context(), part.Filename, part.Size, f)
		f.Close()

		if res.Saved {
			saved++
		}
		results = append(results, res)
	}

	status := http.StatusOK
	if saved == 0 {
		status = http.StatusBadRequest
	}

	api.Respond(ctx, status, uploadMessage(results), &UploadResponse{
		Saved:   saved,
		Results: results,
	})
}

func (h *FilesHandler) Download(ctx *gin.Context) {
	h.serve(ctx, "attachment")
}

func (h *FilesHandler) Preview(ctx *gin.Context) {
	h.serve(ctx, "inline")
}

func (h *FilesHandler) serve(ctx *gin.Context, disposition string) {
	name := ctx.Param("name")

	f, info, err := h.svc.Local().Open(name)
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}
	defer f.Close()

	ServeFile(ctx, name, disposition, info.Size(), f)
}

// ServeFile streams r with a content type derived from the name
func ServeFile(ctx *gin.Context, name, disposition string, size int64, r io.Reader) {
	ctx.Header("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, strconv.Quote(name)))
	ctx.DataFromReader(http.StatusOK, size, utils.DetectContentType(name), r, nil)
}

func (h *FilesHandler) Peek(ctx *gin.Context) {
	res, err := h.svc.Peek(ctx.Param("name"))
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}
	ctx.PureJSON(http.StatusOK, res)
}

func (h *FilesHandler) Create(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.PostForm(fieldName))
	res, err := h.svc.Create(ctx.Request.Context(), name, ctx.PostForm(fieldContent))
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}
	api.Respond(ctx, http.StatusCreated, writeMessage("Created", res), res)
}

func (h *FilesHandler) Edit(ctx *gin.Context) {
	res, err := h.svc.Edit(ctx.Request.Context(), ctx.Param("name"), ctx.PostForm(fieldContent))
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}
	api.Respond(ctx, http.StatusOK, writeMessage("Saved", res), res)
}

func (h *FilesHandler) Delete(ctx *gin.Context) {
	target, err := files.ParseTarget(formOrQuery(ctx, fieldTarget))
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}

	res, err := h.svc.Delete(ctx.Request.Context(), ctx.Param("name"), target)
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}
	api.Respond(ctx, http.StatusOK, "Deleted "+res.Message, res)
}

func (h *FilesHandler) DeleteAll(ctx *gin.Context) {
	target, err := files.ParseTarget(formOrQuery(ctx, fieldTarget))
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}

	res, err := h.svc.DeleteAll(ctx.Request.Context(), target)
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}
	api.Respond(ctx, http.StatusOK, res.Message, res)
}

func formOrQuery(ctx *gin.Context, key string) string {
	if v, ok := ctx.GetPostForm(key); ok {
		return v
	}
	return ctx.Query(key)
}

func uploadMessage(results []files.UploadResult) string {
	msgs := make([]string, 0, len(results))
	for _, res := range results {
		switch {
		case !res.Saved:
			msgs = append(msgs, fmt.Sprintf("%s rejected: %s", res.Original, res.Error))
		case res.Mirror == files.Mirrored:
			msgs = append(msgs, fmt.Sprintf("%s uploaded and mirrored to remote", res.Name))
		case res.Mirror == files.MirrorFailed:
			msgs = append(msgs, fmt.Sprintf("%s uploaded locally, remote upload failed", res.Name))
		default:
			msgs = append(msgs, fmt.Sprintf("%s uploaded locally, remote not configured", res.Name))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeMessage(verb string, res *files.WriteResult) string {
	switch res.Mirror {
	case files.Mirrored:
		return fmt.Sprintf("%s %s and mirrored to remote", verb, res.Name)
	case files.MirrorFailed:
		return fmt.Sprintf("%s %s locally, remote upload failed", verb, res.Name)
	}
	return fmt.Sprintf("%s %s locally", verb, res.Name)
}

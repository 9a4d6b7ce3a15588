package imageconv

import (
	"net/http"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gin-gonic/gin"
	"github.com/openmined/filedrop/internal/server/handlers/api"
	"github.com/openmined/filedrop/internal/server/handlers/files"
	"github.com/openmined/filedrop/internal/server/imageconv"
	"github.com/openmined/filedrop/internal/server/localstore"
)

const (
	fieldFormat = "format"
	fieldNames  = "names"
)

type ConvertHandler struct {
	conv  *imageconv.Converter
	local *localstore.LocalStore
}

func New(conv *imageconv.Converter, local *localstore.LocalStore) *ConvertHandler {
	return &ConvertHandler{
		conv:  conv,
		local: local,
	}
}

// Convert converts the selected `names`, or every image when none are given
func (h *ConvertHandler) Convert(ctx *gin.Context) {
	format := ctx.PostForm(fieldFormat)
	if format == "" {
		format = ctx.Query(fieldFormat)
	}

	names := ctx.PostFormArray(fieldNames)
	if len(names) == 0 {
		names = ctx.QueryArray(fieldNames)
	}

	report, err := h.conv.Convert(ctx.Request.Context(), format, names)
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}

	api.Respond(ctx, http.StatusOK, report.Message, report)
}

func (h *ConvertHandler) List(ctx *gin.Context) {
	names, err := h.local.ListConverted()
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &ListResponse{Files: mapset.Sorted(names)})
}

func (h *ConvertHandler) Download(ctx *gin.Context) {
	name := ctx.Param("name")

	f, info, err := h.local.OpenConverted(name)
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}
	defer f.Close()

	files.ServeFile(ctx, name, "attachment", info.Size(), f)
}

type ListResponse struct {
	Files []string `json:"files"`
}

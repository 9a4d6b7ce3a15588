package reconcile

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openmined/filedrop/internal/server/handlers/api"
	"github.com/openmined/filedrop/internal/server/reconcile"
)

const fieldDirection = "direction"

type SyncHandler struct {
	rec *reconcile.Reconciler
}

func New(rec *reconcile.Reconciler) *SyncHandler {
	return &SyncHandler{rec: rec}
}

// Sync reconciles every file in the requested direction
func (h *SyncHandler) Sync(ctx *gin.Context) {
	direction, err := reconcile.ParseDirection(direction(ctx))
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}

	results := h.rec.Sync(ctx.Request.Context(), direction)
	respond(ctx, results)
}

// SyncOne copies a single file; "both" is rejected with 400
func (h *SyncHandler) SyncOne(ctx *gin.Context) {
	name := ctx.Param("name")
	direction, err := h.rec.FileDirection(name, direction(ctx))
	if err != nil {
		api.AbortWithDomainError(ctx, err)
		return
	}

	result := h.rec.SyncOne(ctx.Request.Context(), name, direction)
	respond(ctx, []reconcile.Result{result})
}

func respond(ctx *gin.Context, results []reconcile.Result) {
	msgs := make([]string, 0, len(results))
	for _, r := range results {
		msgs = append(msgs, r.Message)
	}

	// per-direction failures are reported in the body, not as an http error
	api.Respond(ctx, http.StatusOK, strings.Join(msgs, " "), &SyncResponse{Results: results})
}

func direction(ctx *gin.Context) string {
	if v, ok := ctx.GetPostForm(fieldDirection); ok {
		return v
	}
	return ctx.Query(fieldDirection)
}

type SyncResponse struct {
	Results []reconcile.Result `json:"results"`
}

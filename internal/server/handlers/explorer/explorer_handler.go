package explorer

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"time"

	_ "embed"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/openmined/filedrop/internal/server/handlers/api"
	"github.com/openmined/filedrop/internal/server/imageconv"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/registry"
	"github.com/openmined/filedrop/internal/server/remote"
	"github.com/openmined/filedrop/internal/version"
)

//go:embed index.html.tmpl
var indexTmpl string

type ExplorerHandler struct {
	registry *registry.Registry
	local    *localstore.LocalStore
	remote   remote.Store
	policy   *localstore.Policy
	tplIndex *template.Template
}

func New(reg *registry.Registry, local *localstore.LocalStore, rem remote.Store, policy *localstore.Policy) *ExplorerHandler {
	funcMap := template.FuncMap{
		"humanizeSize": func(size *int64) string {
			if size == nil {
				return "-"
			}
			return humanize.IBytes(uint64(*size))
		},
		"humanizeTime": func(t *time.Time) string {
			if t == nil {
				return "unknown"
			}
			return humanize.Time(*t)
		},
		"isImage":    imageconv.IsImageName,
		"isEditable": func(ext string) bool { return localstore.EditableExtensions.Contains(ext) },
	}

	return &ExplorerHandler{
		registry: reg,
		local:    local,
		remote:   rem,
		policy:   policy,
		tplIndex: template.Must(template.New("index").Funcs(funcMap).Parse(indexTmpl)),
	}
}

// Index renders the registry as an HTML page
func (e *ExplorerHandler) Index(c *gin.Context) {
	key := registry.ParseSortKey(c.Query("sort"))

	records, err := e.registry.List(c.Request.Context(), key)
	if err != nil {
		api.AbortWithError(c, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	converted, err := e.local.ListConverted()
	if err != nil {
		slog.Warn("list converted files", "error", err)
		converted = mapset.NewSet[string]()
	}

	editable := localstore.EditableExtensions.ToSlice()
	slices.Sort(editable)

	data := indexData{
		Version:          version.Short(),
		Flash:            c.Query("flash"),
		Sort:             key,
		SortKeys:         registry.SortKeys,
		Files:            records,
		Converted:        mapset.Sorted(converted),
		RemoteConfigured: e.remote.Configured(),
		RemoteBackend:    e.remote.Backend(),
		Formats:          imageconv.Formats,
		Allowed:          e.policy.Allowed(),
		Editable:         editable,
	}

	// render to a buffer first so a template error still yields a clean 500
	var buf bytes.Buffer
	if err := e.tplIndex.Execute(&buf, data); err != nil {
		api.AbortWithError(c, http.StatusInternalServerError, api.CodeInternalError, fmt.Errorf("failed to execute template: %w", err))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

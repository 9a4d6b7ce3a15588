package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/openmined/filedrop/internal/server/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler http.Handler
	svc     *Services
	remote  *remote.MemoryStore
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &Config{
		HTTP:    HTTPConfig{Addr: DefaultAddr},
		Storage: StorageConfig{UploadDir: t.TempDir()},
		Remote:  remote.Config{Backend: remote.BackendMemory},
	}
	require.NoError(t, cfg.Validate())

	svc, err := NewServices(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	handler, err := SetupRoutes(cfg, svc)
	require.NoError(t, err)

	mem, ok := svc.Remote.(*remote.MemoryStore)
	require.True(t, ok)

	return &testEnv{handler: handler, svc: svc, remote: mem}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func (e *testEnv) upload(t *testing.T, form map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range form {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndVersion(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FileDrop")

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "E_NOT_FOUND")
}

func TestWrongMethod(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/files/delete-all", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "E_INVALID_REQUEST")

	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/files", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUploadListDownload(t *testing.T) {
	env := setupEnv(t)

	w := env.upload(t, nil, map[string][]byte{
		"hello world.txt": []byte("hi there"),
		"virus.exe":       []byte("MZ"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	up := decode[struct {
		Saved   int `json:"saved"`
		Results []struct {
			Name   string `json:"name"`
			Saved  bool   `json:"saved"`
			Mirror string `json:"mirror"`
		} `json:"results"`
	}](t, w)
	assert.Equal(t, 1, up.Saved)

	_, found := env.remote.Exists(context.Background(), "hello_world.txt")
	assert.True(t, found)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/files?sort=name_desc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Sort  string `json:"sort"`
		Files []struct {
			Name            string `json:"name"`
			PresentLocally  bool   `json:"presentLocally"`
			PresentRemotely bool   `json:"presentRemotely"`
			SizeBytes       *int64 `json:"sizeBytes"`
			Extension       string `json:"extension"`
		} `json:"files"`
	}](t, w)
	assert.Equal(t, "name_desc", list.Sort)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "hello_world.txt", list.Files[0].Name)
	assert.True(t, list.Files[0].PresentLocally)
	assert.True(t, list.Files[0].PresentRemotely)
	require.NotNil(t, list.Files[0].SizeBytes)
	assert.Equal(t, int64(8), *list.Files[0].SizeBytes)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/files/download/hello_world.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi there", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/files/preview/hello_world.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/files/download/missing.txt", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "E_FILE_NOT_FOUND")
}

func TestUpload_AllRejected(t *testing.T) {
	env := setupEnv(t)

	w := env.upload(t, nil, map[string][]byte{"bad.exe": []byte("x")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.upload(t, map[string]string{"other": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "E_FILE_NO_UPLOAD")
}

func TestUpload_FormRedirectsWithFlash(t *testing.T) {
	env := setupEnv(t)

	w := env.upload(t, map[string]string{"redirect": "/"}, map[string][]byte{"a.txt": []byte("a")})
	require.Equal(t, http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	assert.Contains(t, loc.Query().Get("flash"), "a.txt uploaded")

	// open redirects are ignored
	w = env.upload(t, map[string]string{"redirect": "//evil.example"}, map[string][]byte{"b.txt": []byte("b")})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateEditPeek(t *testing.T) {
	env := setupEnv(t)

	w := env.postForm(t, "/api/v1/files/create", url.Values{"name": {"notes.md"}, "content": {"# title"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.postForm(t, "/api/v1/files/create", url.Values{"name": {"notes.md"}, "content": {"again"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "E_FILE_EXISTS")

	w = env.postForm(t, "/api/v1/files/edit/notes.md", url.Values{"content": {"# edited"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.postForm(t, "/api/v1/files/edit/ghost.md", url.Values{"content": {"x"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/files/peek/notes.md", nil))
	require.Equal(t, http.StatusOK, w.Code)
	peek := decode[struct {
		Content   string `json:"content"`
		Truncated bool   `json:"truncated"`
	}](t, w)
	assert.Equal(t, "# edited", peek.Content)
	assert.False(t, peek.Truncated)
}

func TestDeleteEndpoints(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.svc.Local.Save("local.txt", strings.NewReader("x"))
	require.NoError(t, err)

	w := env.postForm(t, "/api/v1/files/delete/local.txt", url.Values{"target": {"both"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	del := decode[struct {
		Local  string `json:"local"`
		Remote string `json:"remote"`
	}](t, w)
	assert.Equal(t, "deleted", del.Local)
	assert.Equal(t, "not_found", del.Remote)

	w = env.postForm(t, "/api/v1/files/delete/x.txt", url.Values{"target": {"sideways"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, env.remote.Put(ctx, "r.txt", []byte("r")))
	w = env.postForm(t, "/api/v1/files/delete-all", url.Values{"target": {"remote"}})
	require.Equal(t, http.StatusOK, w.Code)
	names, err := env.remote.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, names.Cardinality())
}

func TestSyncEndpoints(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	require.NoError(t, env.remote.Put(ctx, "from-remote.txt", []byte("r")))
	_, err := env.svc.Local.Save("from-local.txt", strings.NewReader("l"))
	require.NoError(t, err)

	w := env.postForm(t, "/api/v1/sync", url.Values{"direction": {"both"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Results []struct {
			Direction string   `json:"direction"`
			OK        bool     `json:"ok"`
			Synced    []string `json:"synced"`
		} `json:"results"`
	}](t, w)
	require.Len(t, res.Results, 2)
	assert.Equal(t, []string{"from-remote.txt"}, res.Results[0].Synced)
	assert.Equal(t, []string{"from-local.txt"}, res.Results[1].Synced)

	w = env.postForm(t, "/api/v1/sync/from-local.txt", url.Values{"direction": {"to_remote"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.postForm(t, "/api/v1/sync", url.Values{"direction": {"up"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncOneEndpoint_Directions(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.svc.Local.Save("a.txt", strings.NewReader("local"))
	require.NoError(t, err)
	require.NoError(t, env.remote.Put(ctx, "b.txt", []byte("remote")))

	w := env.postForm(t, "/api/v1/sync/a.txt", url.Values{"direction": {"both"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	_, found := env.remote.Exists(ctx, "a.txt")
	assert.False(t, found)

	// without a direction a local file is pushed
	w = env.postForm(t, "/api/v1/sync/a.txt", url.Values{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, found = env.remote.Exists(ctx, "a.txt")
	assert.True(t, found)

	// and a remote-only file is pulled
	w = env.postForm(t, "/api/v1/sync/b.txt", url.Values{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.svc.Local.Exists("b.txt"))
}

func TestConvertEndpoints(t *testing.T) {
	env := setupEnv(t)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 128})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	_, err := env.svc.Local.Save("pic.png", &buf)
	require.NoError(t, err)

	w := env.postForm(t, "/api/v1/convert", url.Values{"format": {"jpg"}, "names": {"pic.png"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "pic_converted.jpg")

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/converted", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pic_converted.jpg")

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/converted/pic_converted.jpg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = env.postForm(t, "/api/v1/convert", url.Values{"format": {"svg"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "E_UNSUPPORTED_FORMAT")
}

func TestIndexPage(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.svc.Local.Save("local.txt", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, env.remote.Put(ctx, "<b>remote</b>.txt", []byte("r")))

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/?sort=newest&flash=hello+there", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "hello there")
	assert.Contains(t, body, "local.txt")
	assert.Contains(t, body, "&lt;b&gt;remote&lt;/b&gt;.txt")
	assert.NotContains(t, body, "<b>remote</b>")
}

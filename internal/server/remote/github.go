package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/imroc/req/v3"
	"github.com/openmined/filedrop/internal/version"
)

const (
	acceptJSON = "application/vnd.github.v3+json"
	acceptRaw  = "application/vnd.github.raw"

	headerAPIVersion = "X-GitHub-Api-Version"
	apiVersion       = "2022-11-28"

	requestTimeout = 60 * time.Second
)

var userAgent = fmt.Sprintf("FileDrop/%s (%s; %s)", version.Version, runtime.GOOS, runtime.GOARCH)

// contentEntry is one item of the repository contents API
type contentEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type deleteContentRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

type githubError struct {
	Message string `json:"message"`
}

// GitHubStore mirrors files into a folder of a GitHub repository using the
// REST contents API. Every write is a commit on the configured branch.
type GitHubStore struct {
	client *req.Client
	repo   string
	branch string
	folder string
}

var _ Store = (*GitHubStore)(nil)

func NewGitHubStore(cfg *GitHubConfig, folder string) *GitHubStore {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultGitHubAPI
	}

	branch := cfg.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	client := req.C().
		SetBaseURL(strings.TrimSuffix(apiURL, "/")).
		SetTimeout(requestTimeout).
		SetUserAgent(userAgent).
		SetCommonHeader("Accept", acceptJSON).
		SetCommonHeader("Authorization", "token "+strings.TrimSpace(cfg.Token)).
		SetCommonHeader(headerAPIVersion, apiVersion).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &GitHubStore{
		client: client,
		repo:   strings.TrimSpace(cfg.Repo),
		branch: branch,
		folder: strings.Trim(folder, "/"),
	}
}

func (g *GitHubStore) Backend() string  { return BackendGitHub }
func (g *GitHubStore) Configured() bool { return true }

func (g *GitHubStore) Exists(ctx context.Context, name string) (string, bool) {
	entry, err := g.stat(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("remote exists", "backend", BackendGitHub, "name", name, "error", err)
		}
		return "", false
	}
	return entry.SHA, true
}

func (g *GitHubStore) Put(ctx context.Context, name string, data []byte) error {
	body := putContentRequest{
		Message: "Upload " + name,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  g.branch,
	}

	if sha, found := g.Exists(ctx, name); found {
		body.SHA = sha
		body.Message = "Update " + name
	}

	var apiErr githubError
	res, err := g.client.R().
		SetContext(ctx).
		SetBody(&body).
		SetErrorResult(&apiErr).
		Put(g.filePath(name))

	return checkResponse(res, err, &apiErr, "put "+name)
}

func (g *GitHubStore) Delete(ctx context.Context, name string) error {
	entry, err := g.stat(ctx, name)
	if err != nil {
		return err
	}

	var apiErr githubError
	res, err := g.client.R().
		SetContext(ctx).
		SetBody(&deleteContentRequest{
			Message: "Delete " + name,
			SHA:     entry.SHA,
			Branch:  g.branch,
		}).
		SetErrorResult(&apiErr).
		Delete(g.filePath(name))

	if res != nil && res.GetStatusCode() == http.StatusNotFound {
		return ErrNotFound
	}

	return checkResponse(res, err, &apiErr, "delete "+name)
}

func (g *GitHubStore) List(ctx context.Context) (mapset.Set[string], error) {
	names := mapset.NewSet[string]()

	var apiErr githubError
	res, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("ref", g.branch).
		SetErrorResult(&apiErr).
		Get(g.folderPath())

	// a folder that was never written to does not exist yet
	if res != nil && err == nil && res.GetStatusCode() == http.StatusNotFound {
		return names, nil
	}

	if err := checkResponse(res, err, &apiErr, "list"); err != nil {
		slog.Error("remote list", "backend", BackendGitHub, "repo", g.repo, "folder", g.folder, "error", err)
		return names, err
	}

	var entries []contentEntry
	if err := jsonUnmarshal(res.Bytes(), &entries); err != nil {
		err = fmt.Errorf("%w: list %s is not a directory listing", ErrBadResponse, g.folder)
		slog.Error("remote list", "backend", BackendGitHub, "repo", g.repo, "folder", g.folder, "error", err)
		return names, err
	}

	for _, entry := range entries {
		if entry.Type == "file" && entry.Name != "" {
			names.Add(entry.Name)
		}
	}

	return names, nil
}

func (g *GitHubStore) Fetch(ctx context.Context, name string) ([]byte, bool) {
	var apiErr githubError
	res, err := g.client.R().
		SetContext(ctx).
		SetHeader("Accept", acceptRaw).
		SetQueryParam("ref", g.branch).
		SetErrorResult(&apiErr).
		Get(g.filePath(name))

	if err := checkResponse(res, err, &apiErr, "fetch "+name); err != nil {
		slog.Warn("remote fetch", "backend", BackendGitHub, "name", name, "error", err)
		return nil, false
	}

	return res.Bytes(), true
}

func (g *GitHubStore) stat(ctx context.Context, name string) (*contentEntry, error) {
	var entry contentEntry
	var apiErr githubError
	res, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("ref", g.branch).
		SetSuccessResult(&entry).
		SetErrorResult(&apiErr).
		Get(g.filePath(name))

	if err == nil && res.GetStatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if err := checkResponse(res, err, &apiErr, "stat "+name); err != nil {
		return nil, err
	}

	if entry.Type != "file" || entry.SHA == "" {
		return nil, ErrNotFound
	}

	return &entry, nil
}

func (g *GitHubStore) folderPath() string {
	return fmt.Sprintf("/repos/%s/contents/%s", g.repo, g.folder)
}

func (g *GitHubStore) filePath(name string) string {
	return g.folderPath() + "/" + url.PathEscape(name)
}

func checkResponse(res *req.Response, requestErr error, apiErr *githubError, op string) error {
	if requestErr != nil {
		return fmt.Errorf("remote %s: %w", op, requestErr)
	}

	if res.IsErrorState() || !res.IsSuccessState() {
		return &APIError{Op: op, StatusCode: res.GetStatusCode(), Message: apiErr.Message}
	}

	return nil
}

package remote

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/openmined/filedrop/internal/utils"
)

const (
	BackendGitHub = "github"
	BackendS3     = "s3"
	BackendMemory = "memory"

	DefaultFolder    = "uploads"
	DefaultBranch    = "main"
	DefaultGitHubAPI = "https://api.github.com"

	placeholderRepo  = "your-username/your-repo-name"
	placeholderToken = "your-github-personal-access-token"
)

type Config struct {
	Backend string       `mapstructure:"backend"`
	Folder  string       `mapstructure:"folder"`
	GitHub  GitHubConfig `mapstructure:"github"`
	S3      S3Config     `mapstructure:"s3"`
}

type GitHubConfig struct {
	Repo   string `mapstructure:"repo"`
	Token  string `mapstructure:"token"`
	Branch string `mapstructure:"branch"`
	APIURL string `mapstructure:"api_url"`
}

type S3Config struct {
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
}

// Configured reports whether credentials are present and not placeholders
func (c *GitHubConfig) Configured() bool {
	repo := strings.TrimSpace(c.Repo)
	token := strings.TrimSpace(c.Token)
	if repo == "" || token == "" || repo == placeholderRepo || token == placeholderToken {
		return false
	}
	owner, name, ok := strings.Cut(repo, "/")
	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}

func (c *S3Config) Configured() bool {
	return c.BucketName != "" && c.Region != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Validate rejects malformed settings. Missing credentials are not an
// error: the remote store is simply disabled.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendGitHub, BackendS3, BackendMemory:
	default:
		return fmt.Errorf("remote `backend` must be one of %s, %s, %s", BackendGitHub, BackendS3, BackendMemory)
	}

	if c.Folder != "" {
		clean := path.Clean(c.Folder)
		if strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, "..") || clean != c.Folder {
			return fmt.Errorf("remote `folder` must be a clean relative path, got %q", c.Folder)
		}
	}

	if c.GitHub.APIURL != "" && !utils.IsValidURL(c.GitHub.APIURL) {
		return fmt.Errorf("remote `github.api_url` is not a valid url: %q", c.GitHub.APIURL)
	}

	if c.S3.Endpoint != "" && !utils.IsValidURL(c.S3.Endpoint) {
		return fmt.Errorf("remote `s3.endpoint` is not a valid url: %q", c.S3.Endpoint)
	}

	return nil
}

func (c *Config) folder() string {
	if c.Folder == "" {
		return DefaultFolder
	}
	return c.Folder
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", c.Backend),
		slog.String("folder", c.folder()),
		slog.String("github_repo", c.GitHub.Repo),
		slog.String("github_branch", c.GitHub.Branch),
		slog.String("github_token", utils.MaskSecret(c.GitHub.Token)),
		slog.String("s3_bucket", c.S3.BucketName),
		slog.String("s3_endpoint", c.S3.Endpoint),
		slog.String("s3_access_key", utils.MaskSecret(c.S3.AccessKey)),
	)
}

package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubConfig_Configured(t *testing.T) {
	tests := []struct {
		name string
		cfg  GitHubConfig
		want bool
	}{
		{name: "complete", cfg: GitHubConfig{Repo: "me/repo", Token: "t"}, want: true},
		{name: "empty", cfg: GitHubConfig{}, want: false},
		{name: "no token", cfg: GitHubConfig{Repo: "me/repo"}, want: false},
		{name: "placeholder repo", cfg: GitHubConfig{Repo: placeholderRepo, Token: "t"}, want: false},
		{name: "placeholder token", cfg: GitHubConfig{Repo: "me/repo", Token: placeholderToken}, want: false},
		{name: "no owner", cfg: GitHubConfig{Repo: "repo", Token: "t"}, want: false},
		{name: "too deep", cfg: GitHubConfig{Repo: "me/repo/x", Token: "t"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Configured())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{Backend: BackendS3, Folder: "a/b"}).Validate())
	assert.Error(t, (&Config{Backend: "ftp"}).Validate())
	assert.Error(t, (&Config{Folder: "../up"}).Validate())
	assert.Error(t, (&Config{Folder: "/abs"}).Validate())
	assert.Error(t, (&Config{GitHub: GitHubConfig{APIURL: "not a url"}}).Validate())
	assert.Error(t, (&Config{S3: S3Config{Endpoint: "ftp://x"}}).Validate())
}

func TestNew_DisabledWithoutCredentials(t *testing.T) {
	store, err := New(&Config{Backend: BackendGitHub})
	require.NoError(t, err)
	assert.False(t, store.Configured())

	ctx := context.Background()
	assert.ErrorIs(t, store.Put(ctx, "a.txt", []byte("x")), ErrNotConfigured)
	assert.ErrorIs(t, store.Delete(ctx, "a.txt"), ErrNotConfigured)

	names, err := store.List(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, names.Cardinality())

	_, found := store.Exists(ctx, "a.txt")
	assert.False(t, found)
	_, ok := store.Fetch(ctx, "a.txt")
	assert.False(t, ok)

	s3Store, err := New(&Config{Backend: BackendS3})
	require.NoError(t, err)
	assert.False(t, s3Store.Configured())
	assert.Equal(t, BackendS3, s3Store.Backend())
}

func TestNew_Backends(t *testing.T) {
	store, err := New(&Config{GitHub: GitHubConfig{Repo: "me/repo", Token: "t"}})
	require.NoError(t, err)
	assert.IsType(t, &GitHubStore{}, store)
	assert.True(t, store.Configured())

	store, err = New(&Config{
		Backend: BackendS3,
		S3:      S3Config{BucketName: "b", Region: "us-east-1", AccessKey: "ak", SecretKey: "sk", Endpoint: "http://localhost:9000"},
	})
	require.NoError(t, err)
	s3Store, ok := store.(*S3Store)
	require.True(t, ok)
	assert.Equal(t, "uploads/a.txt", s3Store.key("a.txt"))

	store, err = New(&Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = New(&Config{Backend: "ftp"})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a.txt", []byte("hello")))
	sha, found := store.Exists(ctx, "a.txt")
	assert.True(t, found)
	assert.NotEmpty(t, sha)

	data, ok := store.Fetch(ctx, "a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.True(t, names.Contains("a.txt"))

	require.NoError(t, store.Delete(ctx, "a.txt"))
	assert.ErrorIs(t, store.Delete(ctx, "a.txt"), ErrNotFound)

	store.FailPut.Add("bad.txt")
	assert.Error(t, store.Put(ctx, "bad.txt", nil))
}

func TestConfig_LogValueMasksSecrets(t *testing.T) {
	cfg := Config{GitHub: GitHubConfig{Token: "ghp_supersecrettoken"}, S3: S3Config{AccessKey: "AKIAEXAMPLEKEY"}}
	out := cfg.LogValue().String()
	assert.NotContains(t, out, "ghp_supersecrettoken")
	assert.NotContains(t, out, "AKIAEXAMPLEKEY")
}

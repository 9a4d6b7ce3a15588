package reconcile

import (
	"context"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/filedrop/internal/server/localstore"
	"github.com/openmined/filedrop/internal/server/metadata"
	"github.com/openmined/filedrop/internal/server/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	rec    *Reconciler
	local  *localstore.LocalStore
	remote *remote.MemoryStore
	meta   metadata.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	local, err := localstore.New(dir)
	require.NoError(t, err)

	meta := metadata.NewJSONStore(dir)
	t.Cleanup(func() { _ = meta.Close() })

	rem := remote.NewMemoryStore()
	return &fixture{
		rec:    New(local, rem, meta),
		local:  local,
		remote: rem,
		meta:   meta,
	}
}

func (f *fixture) saveLocal(t *testing.T, name, content string) {
	t.Helper()
	_, err := f.local.Save(name, strings.NewReader(content))
	require.NoError(t, err)
}

func (f *fixture) putRemote(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, f.remote.Put(context.Background(), name, []byte(content)))
}

func (f *fixture) sets(t *testing.T) (mapset.Set[string], mapset.Set[string]) {
	t.Helper()
	localNames, err := f.local.List()
	require.NoError(t, err)
	remoteNames, err := f.remote.List(context.Background())
	require.NoError(t, err)
	return localNames, remoteNames
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("from_remote")
	require.NoError(t, err)
	assert.Equal(t, FromRemote, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Bidirectional, d)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestSyncFromRemote_Idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.putRemote(t, "a.txt", "alpha")
	f.putRemote(t, "b.txt", "beta")
	f.saveLocal(t, "b.txt", "local beta")

	res := f.rec.SyncFromRemote(ctx)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"a.txt"}, res.Synced)

	data, err := f.local.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	// same name, different content is left alone
	data, err = f.local.Read("b.txt")
	require.NoError(t, err)
	assert.Equal(t, "local beta", string(data))

	entry, found, err := f.meta.Get("a.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(5), entry.SizeBytes)
	assert.True(t, entry.HasTime())

	again := f.rec.SyncFromRemote(ctx)
	assert.True(t, again.OK)
	assert.Empty(t, again.Synced)
	assert.Contains(t, again.Message, "Nothing to sync")
}

func TestSyncToRemote_Idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.saveLocal(t, "up.txt", "up")

	res := f.rec.SyncToRemote(ctx)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"up.txt"}, res.Synced)

	data, ok := f.remote.Fetch(ctx, "up.txt")
	require.True(t, ok)
	assert.Equal(t, "up", string(data))

	again := f.rec.SyncToRemote(ctx)
	assert.Empty(t, again.Synced)
}

func TestSyncBidirectional_Converges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.saveLocal(t, "local1.txt", "1")
	f.saveLocal(t, "shared.txt", "s")
	f.putRemote(t, "shared.txt", "s")
	f.putRemote(t, "remote1.png", "png")
	f.putRemote(t, "remote2.md", "# md")

	results := f.rec.SyncBidirectional(ctx)
	require.Len(t, results, 2)
	assert.Equal(t, FromRemote, results[0].Direction)
	assert.Equal(t, ToRemote, results[1].Direction)
	assert.ElementsMatch(t, []string{"remote1.png", "remote2.md"}, results[0].Synced)
	assert.Equal(t, []string{"local1.txt"}, results[1].Synced)

	localNames, remoteNames := f.sets(t)
	assert.True(t, localNames.Equal(remoteNames))
}

func TestSync_PerFileFaultsContinue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.putRemote(t, "bad.txt", "x")
	f.putRemote(t, "good.txt", "y")
	f.remote.FailFetch.Add("bad.txt")

	res := f.rec.SyncFromRemote(ctx)
	assert.False(t, res.OK)
	assert.Equal(t, []string{"good.txt"}, res.Synced)
	assert.Equal(t, []string{"bad.txt"}, res.Failed)
	assert.Contains(t, res.Message, "1 failed")

	f.saveLocal(t, "push-fail.txt", "z")
	f.saveLocal(t, "push-ok.txt", "z")
	f.remote.FailPut.Add("push-fail.txt")

	res = f.rec.SyncToRemote(ctx)
	assert.False(t, res.OK)
	assert.Equal(t, []string{"push-ok.txt"}, res.Synced)
	assert.Equal(t, []string{"push-fail.txt"}, res.Failed)
}

func TestSyncFromRemote_SkipsUnsafeNames(t *testing.T) {
	f := setup(t)
	f.putRemote(t, "../escape.txt", "x")
	f.putRemote(t, "fine.txt", "y")

	res := f.rec.SyncFromRemote(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, []string{"fine.txt"}, res.Synced)
	assert.Equal(t, []string{"../escape.txt"}, res.Skipped)
	assert.False(t, f.local.Exists("escape.txt"))
}

func TestSync_NotConfigured(t *testing.T) {
	dir := t.TempDir()
	local, err := localstore.New(dir)
	require.NoError(t, err)
	rec := New(local, remote.Disabled(remote.BackendGitHub), metadata.NewJSONStore(dir))

	for _, res := range rec.SyncBidirectional(context.Background()) {
		assert.False(t, res.OK)
		assert.Contains(t, res.Message, "not configured")
	}

	res := rec.SyncOne(context.Background(), "a.txt", ToRemote)
	assert.False(t, res.OK)
	assert.Equal(t, []string{"a.txt"}, res.Skipped)
}

func TestSyncOne(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.putRemote(t, "doc.txt", "remote version")
	f.saveLocal(t, "doc.txt", "local version")

	res := f.rec.SyncOne(ctx, "doc.txt", FromRemote)
	require.True(t, res.OK, res.Message)
	data, err := f.local.Read("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "remote version", string(data))

	f.saveLocal(t, "doc.txt", "edited")
	res = f.rec.SyncOne(ctx, "doc.txt", ToRemote)
	require.True(t, res.OK, res.Message)
	remoteData, ok := f.remote.Fetch(ctx, "doc.txt")
	require.True(t, ok)
	assert.Equal(t, "edited", string(remoteData))

	res = f.rec.SyncOne(ctx, "missing.txt", ToRemote)
	assert.False(t, res.OK)
	assert.Equal(t, []string{"missing.txt"}, res.Failed)

	res = f.rec.SyncOne(ctx, "missing.txt", FromRemote)
	assert.False(t, res.OK)

	res = f.rec.SyncOne(ctx, "doc.txt", Bidirectional)
	assert.False(t, res.OK)
}

func TestFileDirection(t *testing.T) {
	f := setup(t)
	f.saveLocal(t, "local.txt", "l")

	tests := []struct {
		name, input string
		want        Direction
		wantErr     bool
	}{
		{"local.txt", "", ToRemote, false},
		{"remote-only.txt", "", FromRemote, false},
		{"local.txt", "from_remote", FromRemote, false},
		{"local.txt", " TO_REMOTE ", ToRemote, false},
		{"local.txt", "both", "", true},
		{"local.txt", "sideways", "", true},
	}
	for _, tt := range tests {
		got, err := f.rec.FileDirection(tt.name, tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDirection, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, "%s %q", tt.name, tt.input)
	}
}

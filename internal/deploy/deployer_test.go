package deploy

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings/wingstest"
)

func TestDeployer_EnsureDirectory(t *testing.T) {
	fs := wingstest.New()
	fs.AddDir("world")
	d := New(fs)
	ctx := context.Background()

	require.NoError(t, d.EnsureDirectory(ctx, "world", []string{"datapacks", "a", "b"}))
	assert.True(t, fs.IsDir("world/datapacks/a/b"))

	mkdirs := fs.Calls(wingstest.OpMkdir)
	require.Len(t, mkdirs, 3)
	assert.Equal(t, "world/datapacks", mkdirs[0].Path)
	assert.Equal(t, "world/datapacks/a", mkdirs[1].Path)
	assert.Equal(t, "world/datapacks/a/b", mkdirs[2].Path)
}

func TestDeployer_EnsureDirectoryIdempotent(t *testing.T) {
	fs := wingstest.New()
	fs.AddDir("world")
	d := New(fs)
	ctx := context.Background()

	require.NoError(t, d.EnsureDirectory(ctx, "world", []string{"datapacks"}))
	require.NoError(t, d.EnsureDirectory(ctx, "world", []string{"datapacks"}))
	assert.True(t, fs.IsDir("world/datapacks"))
}

func TestDeployer_EnsureDirectoryContinuesAfterFailure(t *testing.T) {
	fs := wingstest.New()
	fs.AddDir("world/datapacks")
	fs.FailCreate["/world/datapacks/a"] = &wings.RequestError{StatusCode: http.StatusForbidden, Message: "permission denied"}
	d := New(fs)

	err := d.EnsureDirectory(context.Background(), "world", []string{"datapacks", "a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	// Every component is still attempted.
	assert.Len(t, fs.Calls(wingstest.OpMkdir), 3)
}

func TestDeployer_EnsureDirectoryRejectsTraversal(t *testing.T) {
	d := New(wingstest.New())

	err := d.EnsureDirectory(context.Background(), "world", []string{"..", "etc"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
}

func TestDeployer_WriteFileFailure(t *testing.T) {
	fs := wingstest.New()
	fs.AddDir("world")
	fs.FailWrite["/world/level.dat"] = &wings.RequestError{StatusCode: http.StatusInternalServerError, Message: "disk quota exceeded"}
	d := New(fs)

	err := d.WriteFile(context.Background(), "world/level.dat", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindRemoteWrite, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "disk quota exceeded")
}

func TestDeployer_DeployFile(t *testing.T) {
	tests := []struct {
		name     string
		relPath  string
		wantPath string
		wantDirs []string
	}{
		{
			name:     "top level file",
			relPath:  "armor_stand.json",
			wantPath: "world/datapacks/armor_stand.json",
		},
		{
			name:     "file without extension",
			relPath:  "LICENSE",
			wantPath: "world/datapacks/LICENSE",
		},
		{
			name:     "deeply nested",
			relPath:  "pack/data/vt/functions/tick/main.mcfunction",
			wantPath: "world/datapacks/pack/data/vt/functions/tick/main.mcfunction",
			wantDirs: []string{
				"world/datapacks/pack",
				"world/datapacks/pack/data",
				"world/datapacks/pack/data/vt",
				"world/datapacks/pack/data/vt/functions",
				"world/datapacks/pack/data/vt/functions/tick",
			},
		},
		{
			name:     "backslash separators",
			relPath:  `pack\pack.mcmeta`,
			wantPath: "world/datapacks/pack/pack.mcmeta",
			wantDirs: []string{"world/datapacks/pack"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if filepath.Separator != '\\' && tt.name == "backslash separators" {
				t.Skip("backslash is a valid file name character on this platform")
			}

			fs := wingstest.New()
			fs.AddDir("world/datapacks")
			d := New(fs)

			require.NoError(t, d.DeployFile(context.Background(), "world/datapacks", tt.relPath, []byte("content")))

			writes := fs.Writes()
			require.Len(t, writes, 1)
			assert.Equal(t, tt.wantPath, writes[0].Path)
			assert.Equal(t, []byte("content"), writes[0].Data)

			var mkdirs []string
			for _, c := range fs.Calls(wingstest.OpMkdir) {
				mkdirs = append(mkdirs, c.Path)
			}
			assert.Equal(t, tt.wantDirs, mkdirs)
		})
	}
}

func TestDeployer_DeployFileSurfacesDirectoryAndWriteErrors(t *testing.T) {
	fs := wingstest.New()
	fs.AddDir("world/datapacks")
	fs.FailCreate["/world/datapacks/pack"] = &wings.RequestError{StatusCode: http.StatusForbidden, Message: "permission denied"}
	d := New(fs)

	err := d.DeployFile(context.Background(), "world/datapacks", "pack/pack.mcmeta", []byte("{}"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindRemoteWrite, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "not found")
	assert.Contains(t, apperr.Message(err), "permission denied")
}

func TestDeployer_DeployFileDirectoryErrorThenWriteSucceeds(t *testing.T) {
	fs := wingstest.New()
	fs.AddDir("world/datapacks/pack")
	fs.FailCreate["/world/datapacks/pack"] = &wings.RequestError{StatusCode: http.StatusForbidden, Message: "odd daemon"}
	d := New(fs)

	require.NoError(t, d.DeployFile(context.Background(), "world/datapacks", "pack/pack.mcmeta", []byte("{}")))

	data, ok := fs.File("world/datapacks/pack/pack.mcmeta")
	require.True(t, ok)
	assert.Equal(t, []byte("{}"), data)
}

func TestDeployer_DeployTree(t *testing.T) {
	local := t.TempDir()
	files := map[string]string{
		"a.json":                         "a",
		"noext":                          "n",
		"pack/pack.mcmeta":               "meta",
		"pack/data/vt/recipes/x.json":    "x",
		"pack/data/vt/recipes/y.json":    "y",
		"other/deep/deeper/deepest/file": "d",
	}
	for rel, content := range files {
		p := filepath.Join(local, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(local, "empty-dir"), 0755))

	fs := wingstest.New()
	fs.AddDir("world/datapacks")
	d := New(fs)

	written, err := d.DeployTree(context.Background(), local, "world/datapacks", "")
	require.NoError(t, err)
	assert.Equal(t, len(files), written)
	assert.Len(t, fs.Writes(), len(files))

	for rel, content := range files {
		data, ok := fs.File("world/datapacks/" + rel)
		require.True(t, ok, rel)
		assert.Equal(t, content, string(data))
	}

	// Shared parents are created once per tree.
	count := 0
	for _, c := range fs.Calls(wingstest.OpMkdir) {
		if c.Path == "world/datapacks/pack/data/vt/recipes" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.False(t, fs.IsDir("world/datapacks/empty-dir"))
}

func TestDeployer_DeployTreeStopsOnWriteFailure(t *testing.T) {
	local := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(local, "a.json"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(local, "b.json"), []byte("b"), 0644))

	fs := wingstest.New()
	fs.AddDir("world/datapacks")
	fs.FailWrite["/world/datapacks/a.json"] = &wings.RequestError{StatusCode: http.StatusInternalServerError, Message: "no space left on device"}
	d := New(fs)

	written, err := d.DeployTree(context.Background(), local, "world/datapacks", "")
	require.Error(t, err)
	assert.Equal(t, 0, written)
	assert.Equal(t, apperr.KindRemoteWrite, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "no space left on device")
	assert.Len(t, fs.Writes(), 1)
}

func TestDeployer_DeployTreeCreatesPrefix(t *testing.T) {
	local := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(local, "pack"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(local, "a.json"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(local, "pack", "pack.mcmeta"), []byte("meta"), 0644))

	fs := wingstest.New()
	fs.AddDir("world")
	d := New(fs)

	written, err := d.DeployTree(context.Background(), local, "world", "datapacks")
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	data, ok := fs.File("world/datapacks/pack/pack.mcmeta")
	require.True(t, ok)
	assert.Equal(t, "meta", string(data))

	count := 0
	for _, c := range fs.Calls(wingstest.OpMkdir) {
		if c.Path == "world/datapacks" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeployer_DeployTreeSurfacesPrefixError(t *testing.T) {
	local := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(local, "a.json"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(local, "b.json"), []byte("b"), 0644))

	fs := wingstest.New()
	fs.AddDir("world")
	fs.FailCreate["/world/datapacks"] = &wings.RequestError{StatusCode: http.StatusForbidden, Message: "permission denied"}
	d := New(fs)

	_, err := d.DeployTree(context.Background(), local, "world", "datapacks")
	require.Error(t, err)
	assert.Equal(t, apperr.KindRemoteWrite, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "permission denied")
	assert.Contains(t, apperr.Message(err), "world/datapacks/a.json")
}

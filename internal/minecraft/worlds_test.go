package minecraft

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings/wingstest"
)

func TestListWorlds(t *testing.T) {
	fs := wingstest.New()
	fs.AddFile("zeta/level.dat", []byte("z"))
	fs.AddFile("world/level.dat", []byte("w"))
	fs.AddFile("alpha/level.dat", []byte("a"))
	fs.AddDir("plugins")
	fs.AddDir("fake/level.dat")
	fs.AddFile("server.properties", []byte("motd=hi"))

	worlds, err := ListWorlds(context.Background(), fs, "")
	require.NoError(t, err)

	assert.Equal(t, []World{
		{Name: "world", Path: "world"},
		{Name: "alpha", Path: "alpha"},
		{Name: "zeta", Path: "zeta"},
	}, worlds)
}

func TestListWorlds_NestedRoot(t *testing.T) {
	fs := wingstest.New()
	fs.AddFile("worlds/creative/level.dat", nil)

	worlds, err := ListWorlds(context.Background(), fs, "worlds")
	require.NoError(t, err)
	assert.Equal(t, []World{{Name: "creative", Path: "worlds/creative"}}, worlds)
}

func TestListWorlds_SkipsUnreadableDirectories(t *testing.T) {
	fs := wingstest.New()
	fs.AddFile("world/level.dat", nil)
	fs.AddFile("locked/level.dat", nil)
	fs.FailList["/locked"] = &wings.RequestError{StatusCode: http.StatusForbidden, Message: "denied"}

	worlds, err := ListWorlds(context.Background(), fs, "")
	require.NoError(t, err)
	assert.Equal(t, []World{{Name: "world", Path: "world"}}, worlds)
}

func TestListWorlds_Empty(t *testing.T) {
	worlds, err := ListWorlds(context.Background(), wingstest.New(), "")
	require.NoError(t, err)
	assert.NotNil(t, worlds)
	assert.Empty(t, worlds)
}

func TestListWorlds_RootErrors(t *testing.T) {
	_, err := ListWorlds(context.Background(), wingstest.New(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	fs := wingstest.New()
	fs.FailList["/"] = &wings.RequestError{StatusCode: http.StatusBadGateway, Message: "daemon offline"}
	_, err = ListWorlds(context.Background(), fs, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindRemoteWrite, apperr.KindOf(err))
	assert.Equal(t, "daemon offline", apperr.Message(err))
}

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name   string
		dirs   []string
		files  []string
		want   string
		wantOK bool
	}{
		{name: "release", dirs: []string{"versions/1.20.4"}, want: "1.20", wantOK: true},
		{name: "modded suffix", dirs: []string{"versions/1.20.1-fabric"}, want: "1.20", wantOK: true},
		{
			name:   "first match in listing order",
			dirs:   []string{"versions/cache", "versions/1.19.2", "versions/1.21"},
			want:   "1.19",
			wantOK: true,
		},
		{name: "files are ignored", dirs: []string{"versions"}, files: []string{"versions/1.21.json"}},
		{name: "no version dirs", dirs: []string{"versions/latest"}},
		{name: "missing directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := wingstest.New()
			for _, d := range tt.dirs {
				fs.AddDir(d)
			}
			for _, f := range tt.files {
				fs.AddFile(f, nil)
			}

			got, ok := DetectVersion(context.Background(), fs, VersionsDir)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

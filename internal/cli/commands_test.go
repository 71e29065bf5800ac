package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/packs"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/config"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/vanillatweaks"
)

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, out string, data any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	require.Equal(t, "success", env.Status)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestPacksCommand(t *testing.T) {
	e := newTestEnv(t)

	t.Run("text", func(t *testing.T) {
		out, err := e.run(t, "packs")
		require.NoError(t, err)
		assert.Contains(t, out, "Vanilla Tweaks datapacks for 1.21")
		assert.Contains(t, out, "armor_stand")
		assert.Contains(t, out, "Armor Statues")
		assert.Contains(t, out, "afk_display")
	})

	t.Run("json filter", func(t *testing.T) {
		out, err := e.run(t, "--json", "packs", "--filter", "grave")
		require.NoError(t, err)

		var data struct {
			Count int        `json:"count"`
			Packs []packs.PackItem `json:"packs"`
		}
		decodeEnvelope(t, out, &data)
		require.Equal(t, 1, data.Count)
		assert.Equal(t, "graves", data.Packs[0].Name)
		assert.Equal(t, "Survival", data.Packs[0].Category)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := e.run(t, "packs", "--type", "shaders")
		require.Error(t, err)
		assert.ErrorIs(t, err, vanillatweaks.ErrInvalidPackType)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := e.run(t, "packs", "--mc-version", "1.8")
		require.Error(t, err)
	})
}

func TestWorldsCommand(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "--json", "worlds", testServer)
	require.NoError(t, err)

	var data struct {
		Worlds []struct {
			Name string `json:"name"`
		} `json:"worlds"`
	}
	decodeEnvelope(t, out, &data)
	require.Len(t, data.Worlds, 2)
	assert.Equal(t, "world", data.Worlds[0].Name)
	assert.Equal(t, "survival", data.Worlds[1].Name)

	out, err = e.run(t, "worlds", testServer)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "survival")
	assert.NotContains(t, out, "logs")
}

func TestDetectVersionCommand(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "detect-version", testServer)
	require.NoError(t, err)
	assert.Equal(t, "1.21\n", out)

	out, err = e.run(t, "--json", "detect-version", "other-server")
	require.NoError(t, err)
	var data struct {
		Version *string `json:"version"`
	}
	decodeEnvelope(t, out, &data)
	assert.Nil(t, data.Version)
}

func TestInstallCommand(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "--json", "install", testServer,
		"--pack", "Armor Stands=armor_stand",
		"--pack", "Survival=graves",
		"--user", "alex")
	require.NoError(t, err)

	var result struct {
		PackType     string `json:"pack_type"`
		World        string `json:"world"`
		PacksCount   int    `json:"packs_count"`
		FilesWritten int    `json:"files_written"`
	}
	env := decodeEnvelope(t, out, &result)
	assert.Equal(t, "Installed 2 datapacks into world", env.Message)
	assert.Equal(t, 2, result.PacksCount)
	assert.Equal(t, 3, result.FilesWritten)
	assert.EqualValues(t, 1, e.archives.Load())

	fs := e.wings.FS(testServer)
	data, ok := fs.File("world/datapacks/armor_stand.json")
	require.True(t, ok)
	assert.Equal(t, `{"pose":"default"}`, string(data))
	_, ok = fs.File("world/datapacks/graves/data/g/tick.json")
	assert.True(t, ok)

	out, err = e.run(t, "--json", "activity", testServer)
	require.NoError(t, err)

	var records struct {
		Count   int `json:"count"`
		Records []struct {
			Event     string `json:"event"`
			User      string `json:"user"`
			MCVersion string `json:"mc_version"`
		} `json:"records"`
	}
	decodeEnvelope(t, out, &records)
	require.Equal(t, 1, records.Count)
	assert.Equal(t, "datapacks_installed", records.Records[0].Event)
	assert.Equal(t, "alex", records.Records[0].User)
	assert.Equal(t, "1.21", records.Records[0].MCVersion)
}

func TestInstallCommand_Errors(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "pack required",
			args:    []string{"install", testServer},
			wantErr: `required flag(s) "pack" not set`,
		},
		{
			name:    "bad pack value",
			args:    []string{"install", testServer, "--pack", "graves"},
			wantErr: "expected Category=name",
		},
		{
			name:    "version not detectable",
			args:    []string{"install", "other-server", "--pack", "Survival=graves"},
			wantErr: "could not detect the Minecraft version",
		},
		{
			name:    "world traversal",
			args:    []string{"install", testServer, "--mc-version", "1.21", "--world", "../etc", "--pack", "Survival=graves"},
			wantErr: "..",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.EqualValues(t, 0, e.archives.Load())
}

func TestActivityCommand_RequiresDatabase(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := execute(t, "activity")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity database is not configured")

	e := newTestEnv(t)
	_, err = e.run(t, "activity", "--limit", "0")
	require.Error(t, err)

	out, err := e.run(t, "activity")
	require.NoError(t, err)
	assert.Contains(t, out, "No activity recorded.")
}

func TestVersionsCommand(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "--json", "versions", "--manifest-url", e.upstream.URL+"/manifest.json", "--limit", "2")
	require.NoError(t, err)

	var data struct {
		Latest   string   `json:"latest"`
		Versions []string `json:"versions"`
	}
	decodeEnvelope(t, out, &data)
	assert.Equal(t, "1.21.4", data.Latest)
	assert.Equal(t, []string{"1.21", "1.20"}, data.Versions)
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := t.TempDir() + "/vtinstaller.yaml"

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = execute(t, "--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Server, loaded.Server)
	assert.Equal(t, config.DefaultConfig().Catalog, loaded.Catalog)

	// A broken file can be replaced with --force.
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0600))
	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigShow_RedactsTokens(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, testNodeToken)
	assert.NotContains(t, out, testAPIToken)

	var shown config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "********", shown.Server.APIToken)
	assert.Equal(t, "********", shown.Wings.Nodes["node1"].Token)
	assert.Equal(t, e.wings.URL, shown.Wings.Nodes["node1"].URL)

	// The loaded config is untouched.
	assert.Equal(t, testAPIToken, cmdutil.Config().Server.APIToken)

	out, err = e.run(t, "--json", "config", "show")
	require.NoError(t, err)
	var data map[string]any
	decodeEnvelope(t, out, &data)
	assert.Contains(t, data, "catalog")
}

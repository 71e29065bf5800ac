package cli

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings/wingstest"
)

const (
	testServer    = "8d5e1c1a-6f0e-4e5b-9a3a-2f2f6b1d0c11"
	testNodeToken = "node-token"
	testAPIToken  = "api-secret"
)

const testCatalog = `{
  "version": "1.21",
  "categories": [
    {"category": "Armor Stands", "packs": [
      {"name": "armor_stand", "display": "Armor Statues", "description": "Pose armor stands with a book."}
    ]},
    {"category": "Survival", "packs": [
      {"name": "graves", "display": "Graves", "description": "Keep your items in a grave."},
      {"name": "afk_display", "display": "AFK Display"}
    ]}
  ]
}`

// testEnv is an upstream catalog stub plus a Wings node hosting testServer,
// with a config file pointing at both.
type testEnv struct {
	upstream   *httptest.Server
	wings      *wingstest.Server
	configPath string
	database   string
	archives   atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	e := &testEnv{}

	archive := buildZip(t, map[string]string{
		"armor_stand.json":        `{"pose":"default"}`,
		"graves/pack.mcmeta":      `{"pack":{"pack_format":48}}`,
		"graves/data/g/tick.json": `{}`,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /assets/resources/json/1.21/dpcategories.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testCatalog))
	})
	mux.HandleFunc("POST /assets/server/zipdatapacks.php", func(w http.ResponseWriter, r *http.Request) {
		e.archives.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","link":"/download/VanillaTweaks_d1.zip"}`))
	})
	mux.HandleFunc("GET /download/VanillaTweaks_d1.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("GET /manifest.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
  "latest": {"release": "1.21.4", "snapshot": "25w02a"},
  "versions": [
    {"id": "25w02a", "type": "snapshot"},
    {"id": "1.21.4", "type": "release"},
    {"id": "1.21.3", "type": "release"},
    {"id": "1.20.6", "type": "release"},
    {"id": "1.19.4", "type": "release"}
  ]
}`))
	})
	e.upstream = httptest.NewServer(mux)
	t.Cleanup(e.upstream.Close)

	e.wings = wingstest.NewServer()
	e.wings.Token = testNodeToken
	t.Cleanup(e.wings.Close)

	fs := e.wings.FS(testServer)
	fs.AddFile("world/level.dat", []byte("lvl"))
	fs.AddFile("survival/level.dat", []byte("lvl"))
	fs.AddDir("logs")
	fs.AddDir("versions/1.21.1")

	dir := t.TempDir()
	e.database = filepath.Join(dir, "activity.db")
	e.configPath = writeConfig(t, fmt.Sprintf(`server:
  api_token: %s
catalog:
  base_url: %s
  min_pause: 0s
  max_pause: 0s
wings:
  nodes:
    node1:
      url: %s
      token: %s
  default_node: node1
activity:
  database: %s
logging:
  level: error
`, testAPIToken, e.upstream.URL, e.wings.URL, testNodeToken, e.database))

	return e
}

// run executes the root command against the environment's config file.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.configPath}, args...)...)
}

// execute runs a fresh root command and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand("dev", "unknown", "unknown", "unknown")
	cmd.SetArgs(args)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

package cmdutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"count": 2}, "done"))

	var out struct {
		Status  string         `json:"status"`
		Data    map[string]int `json:"data"`
		Message string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, 2, out.Data["count"])
	assert.Equal(t, "done", out.Message)
}

func TestPrintError(t *testing.T) {
	err := errors.New("boom")

	var text bytes.Buffer
	PrintError(&text, err, false)
	assert.Contains(t, text.String(), "Error: ")
	assert.Contains(t, text.String(), "boom")

	var js bytes.Buffer
	PrintError(&js, err, true)
	var out Output
	require.NoError(t, json.Unmarshal(js.Bytes(), &out))
	assert.Equal(t, Output{Status: "error", Error: "boom"}, out)
}

func TestPrintf_Quiet(t *testing.T) {
	defer SetGlobals(Globals{})

	var buf bytes.Buffer
	SetGlobals(Globals{Quiet: true})
	Printf(&buf, "hidden %d", 1)
	assert.Empty(t, buf.String())

	SetGlobals(Globals{})
	Printf(&buf, "shown %d", 2)
	assert.Equal(t, "shown 2", buf.String())
}

func TestSetGlobals_DefaultsConfig(t *testing.T) {
	defer SetGlobals(Globals{})

	SetGlobals(Globals{ConfigPath: "/tmp/x.yaml", JSON: true})
	require.NotNil(t, Config())
	assert.Equal(t, ":8080", Config().Server.Addr)
	assert.Equal(t, "/tmp/x.yaml", ConfigPath())
	assert.True(t, IsJSONOutput())
	assert.False(t, IsQuiet())
}

func TestRequireServerID(t *testing.T) {
	cmd := &cobra.Command{Use: "worlds <server>"}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "one id", args: []string{"8d5e1c1a"}},
		{name: "missing", args: nil, wantErr: "server id is required"},
		{name: "too many", args: []string{"a", "b"}, wantErr: "only one server id allowed"},
		{name: "blank", args: []string{"  "}, wantErr: "server id cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireServerID(cmd, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"NAME", "PATH"}, [][]string{
		{"world", "world"},
		{"survival_island", "worlds/survival_island"},
	})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "NAME")
	assert.Equal(t, "world            world", string(lines[1]))
	assert.Equal(t, "survival_island  worlds/survival_island", string(lines[2]))
}

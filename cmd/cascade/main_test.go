// File: lixenwraith/cascade/cmd/cascade/main_test.go
package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/cascade"
)

// execute runs the root command with args and returns its stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0644))
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "app.yml", "name: shop\nport: 8080\n")
	writeConfig(t, dir, "app_production.yml", "port: 80\n")
	writeConfig(t, dir, "app_GB.yml", "currency: GBP\n")

	common := []string{"--path", dir, "--tier", "production", "--hostname", "h1.example.com", "--overlay", ""}
	run := func(args ...string) (string, error) {
		return execute(t, append(args, common...)...)
	}

	t.Run("GetJSON", func(t *testing.T) {
		out, err := run("get", "app", "-f", "json")
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"name\": \"shop\",\n  \"port\": 80\n}\n", out)
	})

	t.Run("GetPath", func(t *testing.T) {
		out, err := run("get", "app", "port", "-f", "yaml")
		require.NoError(t, err)
		assert.Equal(t, "80\n", out)

		_, err = run("get", "app", "missing", "-f", "yaml")
		assert.Error(t, err)
	})

	t.Run("ExplicitOverlay", func(t *testing.T) {
		out, err := run("get", "app_GB", "currency", "-f", "yaml")
		require.NoError(t, err)
		assert.Equal(t, "GBP\n", out)
	})

	t.Run("Query", func(t *testing.T) {
		out, err := run("query", "app", "{port, name}", "-c")
		require.NoError(t, err)
		assert.Equal(t, "{\"name\":\"shop\",\"port\":80}\n", out)

		out, err = run("query", "app", ".name", "-r")
		require.NoError(t, err)
		assert.Equal(t, "shop\n", out)

		_, err = run("query", "app", ".[")
		assert.Error(t, err)
	})

	t.Run("Names", func(t *testing.T) {
		out, err := run("names")
		require.NoError(t, err)
		assert.Equal(t, "app\n", out)
	})

	t.Run("DumpToFile", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "app.toml")
		_, err := run("dump", "app", "-o", target)
		require.NoError(t, err)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(data), "port = 80")
	})
}

func TestParseFormat(t *testing.T) {
	tests := map[string]cascade.Format{
		"yaml": cascade.FormatYAML,
		"yml":  cascade.FormatYAML,
		"json": cascade.FormatJSON,
		"toml": cascade.FormatTOML,
	}
	for in, want := range tests {
		got, err := parseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseFormat("xml")
	assert.Error(t, err)

	_, err = parseFormat("ini")
	assert.ErrorIs(t, err, cascade.ErrUnknownFileType)
}

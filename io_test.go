// FILE: lixenwraith/cascade/io_test.go
package cascade

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	env := newTestEnv(t, "/cfg")
	env.write("/cfg/app.yml", `
zeta: 1
alpha:
  name: shop
  ports: [80, 443]
empty: ~
`)
	env.write("/cfg/app_local.yml", "alpha:\n  debug: true\n")
	r := env.registry("/cfg")

	t.Run("YAMLKeepsOrder", func(t *testing.T) {
		out, err := r.Dump("app", FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, `zeta: 1
alpha:
  name: shop
  ports:
    - 80
    - 443
  debug: true
empty: null
`, string(out))
	})

	t.Run("JSONKeepsOrder", func(t *testing.T) {
		out, err := r.Dump("app", FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, `{
  "zeta": 1,
  "alpha": {
    "name": "shop",
    "ports": [
      80,
      443
    ],
    "debug": true
  },
  "empty": null
}
`, string(out))
	})

	t.Run("TOMLDropsNulls", func(t *testing.T) {
		out, err := r.Dump("app", FormatTOML)
		require.NoError(t, err)

		back, err := decodeTOML(out)
		require.NoError(t, err)
		_, found := back.Key("empty")
		assert.False(t, found)
		assert.True(t, back.Get("alpha", "debug").Equal(NewScalar(true)))
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		_, err := r.Dump("app", FormatXML)
		assert.ErrorIs(t, err, ErrUnknownFileType)
		_, err = r.Dump("app", FormatProperties)
		assert.ErrorIs(t, err, ErrUnknownFileType)
	})

	t.Run("TOMLNeedsMapping", func(t *testing.T) {
		_, err := Marshal(NewSequence(NewScalar(1)), FormatTOML)
		assert.ErrorIs(t, err, ErrNotMapping)
	})
}

func TestSave(t *testing.T) {
	env := newTestEnv(t, "/cfg", "/out")
	env.write("/cfg/app.yml", "name: shop\nport: 8080\n")
	env.write("/cfg/app_production.yml", "port: 80\n")
	r := env.registry("/cfg")

	require.NoError(t, r.Save("app", "/out/nested/app.json"))

	data, err := afero.ReadFile(env.fs, "/out/nested/app.json")
	require.NoError(t, err)
	v, err := decodeJSON(data)
	require.NoError(t, err)
	assert.True(t, v.Equal(mustConfig(t, r, "app")))

	// No temp files left behind
	entries, err := afero.ReadDir(env.fs, "/out/nested")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	t.Run("SavedFileLoads", func(t *testing.T) {
		r2 := env.registry("/out/nested")
		port, err := mustConfig(t, r2, "app").Int64("port")
		require.NoError(t, err)
		assert.Equal(t, int64(80), port)
	})

	t.Run("UnknownExtension", func(t *testing.T) {
		err := r.Save("app", "/out/app.ini")
		assert.ErrorIs(t, err, ErrUnknownFileType)
		exists, _ := afero.Exists(env.fs, "/out/app.ini")
		assert.False(t, exists)
	})
}

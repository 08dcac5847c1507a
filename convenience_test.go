// FILE: lixenwraith/cascade/convenience_test.go
package cascade

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuick(t *testing.T) {
	shared := t.TempDir()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "shop"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(shared, "db.yml"), []byte("host: shared\npool: 5\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "shop", "db.yml"), []byte("host: user\n"), 0644))

	t.Setenv(EnvConfigPath, shared)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(home, "none"))

	r, err := Quick("shop", "db")
	require.NoError(t, err)
	assert.Equal(t, []string{shared, filepath.Join(home, "shop")}, r.LoadPaths())
	assert.Equal(t, []string{"db"}, r.CachedNames())

	// Same rank, so the earlier load path wins
	host, err := mustConfig(t, r, "db").String("host")
	require.NoError(t, err)
	assert.Equal(t, "shared", host)

	t.Run("MustQuick", func(t *testing.T) {
		assert.NotPanics(t, func() { MustQuick("shop") })

		require.NoError(t, os.WriteFile(filepath.Join(shared, "bad.yml"), []byte("a: [1\n"), 0644))
		assert.Panics(t, func() { MustQuick("shop", "bad") })
	})
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t, "/cfg")
	env.write("/cfg/db.yml", `
host: db1
port: ~
pool:
  size: 5
`)
	r := env.registry("/cfg")

	require.NoError(t, r.Validate("db", "host", "pool.size"))

	err := r.Validate("db", "host", "port", "pool.max", "user")
	require.Error(t, err)
	assert.Equal(t, "missing required configuration in 'db': port, pool.max, user", err.Error())
}

func TestDebug(t *testing.T) {
	env := newTestEnv(t, "/cfg")
	env.write("/cfg/db.yml", "host: db1\npool:\n  size: 5\n")
	env.write("/cfg/db_local.yml", "host: db2\n")
	r := env.registry("/cfg")

	out := r.Debug("db")
	assert.Contains(t, out, "Configuration Debug Info: db\n")
	assert.Contains(t, out, `Tier: production, Host: web1.example.com, Overlay: "", Reload: true`)
	assert.Contains(t, out, "  [0] /cfg/db.yml\n  [1] /cfg/db_local.yml\n")
	assert.Contains(t, out, "Current values:\n  host: db2\n  pool.size: 5\n")

	t.Run("Error", func(t *testing.T) {
		env.write("/cfg/bad.yml", "a: [1\n")
		out := r.Debug("bad")
		assert.Contains(t, out, "Error: ")
		assert.NotContains(t, out, "Current values")
	})
}

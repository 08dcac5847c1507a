// FILE: lixenwraith/cascade/discovery_test.go
package cascade

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	env := newTestEnv(t, "/a", "/b")
	env.write("/a/database.yml", "")
	env.write("/a/database_local.yml", "")
	env.write("/a/database_production_local.yml", "")
	env.write("/a/database_web1.example.com_config_local.yml", "")
	env.write("/a/database_DEV.yml", "")
	env.write("/a/database_DEV_production.yml", "")
	env.write("/b/cache.json", "{}")
	env.write("/b/cache_web1.toml", "")
	env.write("/b/notes.txt", "")
	env.write("/b/app_config.xml", "<a/>")
	r := env.registry("/a", "/b")

	names, err := r.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "cache", "database"}, names)

	t.Run("RestrictedFileTypes", func(t *testing.T) {
		require.NoError(t, r.SetFileTypes("json"))
		names, err := r.Names()
		require.NoError(t, err)
		assert.Equal(t, []string{"cache"}, names)
	})
}

func TestConfigNameOf(t *testing.T) {
	suffixes := standardSuffixes(testTier, testHost)
	tests := map[string]string{
		"db.yml":                               "db",
		"db_local.yml":                         "db",
		"db_production_local.yml":              "db",
		"db_web1.yml":                          "db",
		"db_web1_config_local.yml":             "db",
		"db_web1.example.com.yml":              "db",
		"db_DEV.yml":                           "db",
		"db_DEV_local.yml":                     "db",
		"user_settings.yml":                    "user_settings",
		"local.yml":                            "local",
		"_DEV.yml":                             "_DEV",
		"db_web1.example.com_config_local.yml": "db",
	}
	for file, want := range tests {
		t.Run(file, func(t *testing.T) {
			sorted := append([]Suffix(nil), suffixes...)
			sortSuffixesLongestFirst(sorted)
			assert.Equal(t, want, configNameOf(file, sorted))
		})
	}
}

func TestDiscoverLoadPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(home, "system"))

	paths := DefaultSearchPaths("shop")
	assert.Contains(t, paths, filepath.Join(home, "shop"))
	assert.Contains(t, paths, filepath.Join(home, "system", "shop"))
	assert.NotContains(t, paths, "/etc/shop")

	env := newTestEnv(t, filepath.Join(home, "shop"))
	found := DiscoverLoadPaths(env.fs, "shop")
	assert.Equal(t, []string{filepath.Join(home, "shop")}, found)

	t.Run("HomeFallback", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_CONFIG_DIRS", "")
		t.Setenv("HOME", home)

		paths := DefaultSearchPaths("shop")
		assert.Contains(t, paths, filepath.Join(home, ".config", "shop"))
		assert.Contains(t, paths, "/etc/shop")

		cwd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "config"), paths[0])
	})

	t.Run("WithDiscovery", func(t *testing.T) {
		dir := filepath.Join(home, "shop")
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "db.yml"), []byte("host: found\n"), 0644))

		r, err := NewBuilder().WithDiscovery("shop").Build()
		require.NoError(t, err)
		assert.Contains(t, r.LoadPaths(), dir)

		host, err := mustConfig(t, r, "db").String("host")
		require.NoError(t, err)
		assert.Equal(t, "found", host)
	})
}

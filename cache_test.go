// FILE: lixenwraith/cascade/cache_test.go
package cascade

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostOf(t *testing.T, r *Registry, name string) string {
	t.Helper()
	host, err := mustConfig(t, r, name).String("host")
	require.NoError(t, err)
	return host
}

func TestReloadOnChange(t *testing.T) {
	t.Run("MtimeChangeAfterInterval", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: one\n")
		r := env.registry("/cfg")

		var nameCalls, anyCalls, bothCalls int
		_, err := r.OnLoadFunc(func() error { nameCalls++; return nil }, "db")
		require.NoError(t, err)
		_, err = r.OnLoadFunc(func() error { anyCalls++; return nil })
		require.NoError(t, err)
		_, err = r.OnLoadFunc(func() error { bothCalls++; return nil }, "db", AnyConfig)
		require.NoError(t, err)

		// Each invoked once on registration
		assert.Equal(t, []int{1, 1, 1}, []int{nameCalls, anyCalls, bothCalls})

		assert.Equal(t, "one", hostOf(t, r, "db"))

		env.write("/cfg/db.yml", "host: two\n")

		// Within the interval the cached result is served
		env.clock.Advance(DefaultReloadInterval)
		assert.Equal(t, "one", hostOf(t, r, "db"))

		env.clock.Advance(time.Second)
		assert.Equal(t, "two", hostOf(t, r, "db"))
		assert.Equal(t, []int{2, 2, 2}, []int{nameCalls, anyCalls, bothCalls})

		// No further firing without a change
		env.clock.Advance(DefaultReloadInterval + time.Second)
		assert.Equal(t, "two", hostOf(t, r, "db"))
		assert.Equal(t, []int{2, 2, 2}, []int{nameCalls, anyCalls, bothCalls})
	})

	t.Run("NewFileDetected", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: base\n")
		r := env.registry("/cfg")
		assert.Equal(t, "base", hostOf(t, r, "db"))

		env.write("/cfg/db_local.yml", "host: local\n")
		env.clock.Advance(DefaultReloadInterval + time.Second)
		assert.Equal(t, "local", hostOf(t, r, "db"))
		assert.Len(t, r.LoadedFiles("db"), 2)

		require.NoError(t, env.fs.Remove("/cfg/db_local.yml"))
		env.clock.Advance(DefaultReloadInterval + time.Second)
		assert.Equal(t, "base", hostOf(t, r, "db"))
		assert.Len(t, r.LoadedFiles("db"), 1)
	})

	t.Run("OnlyChangedFilesReparsed", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: base\nport: 1\n")
		env.write("/cfg/db_local.yml", "host: local\n")
		r := env.registry("/cfg")
		assert.Equal(t, "local", hostOf(t, r, "db"))

		// Same mtime: the cached decode of db.yml is kept
		env.writeKeepMtime("/cfg/db.yml", "host: base\nport: 2\n")
		env.write("/cfg/db_local.yml", "host: changed\n")
		env.clock.Advance(DefaultReloadInterval + time.Second)

		v := mustConfig(t, r, "db")
		host, _ := v.String("host")
		port, _ := v.Int64("port")
		assert.Equal(t, "changed", host)
		assert.Equal(t, int64(1), port)
	})

	t.Run("CheckForChanges", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/a.yml", "host: a1\n")
		env.write("/cfg/b.yml", "host: b1\n")
		r := env.registry("/cfg")
		mustConfig(t, r, "a")
		mustConfig(t, r, "b")

		changed, err := r.CheckForChanges()
		require.NoError(t, err)
		assert.Empty(t, changed)

		env.write("/cfg/b.yml", "host: b2\n")
		changed, err = r.CheckForChanges()
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, changed)
		assert.Equal(t, "b2", hostOf(t, r, "b"))

		// Names never looked up are not loaded by a check
		env.write("/cfg/c.yml", "host: c1\n")
		changed, err = r.CheckForChanges("c")
		require.NoError(t, err)
		assert.Empty(t, changed)
		assert.Equal(t, []string{"a", "b"}, r.CachedNames())
	})

	t.Run("CallbackErrorPropagates", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: one\n")
		r := env.registry("/cfg")
		mustConfig(t, r, "db")

		fail := false
		boom := errors.New("boom")
		_, err := r.OnLoadFunc(func() error {
			if fail {
				return boom
			}
			return nil
		}, "db")
		require.NoError(t, err)

		fail = true
		env.write("/cfg/db.yml", "host: two\n")
		env.clock.Advance(DefaultReloadInterval + time.Second)

		_, err = r.Config("db")
		assert.ErrorIs(t, err, boom)

		// The new data was published before callbacks ran
		fail = false
		assert.Equal(t, "two", hostOf(t, r, "db"))
	})
}

func TestReloadDisabled(t *testing.T) {
	t.Run("FirstLoadIsFrozen", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: one\n")
		r, err := env.builder("/cfg").WithReloadDisabled().Build()
		require.NoError(t, err)
		assert.False(t, r.ReloadEnabled())

		assert.Equal(t, "one", hostOf(t, r, "db"))

		env.write("/cfg/db.yml", "host: two\n")
		env.clock.Advance(DefaultReloadInterval + time.Second)
		assert.Equal(t, "one", hostOf(t, r, "db"))

		// Snapshots survive flushes and forced loads
		r.Flush()
		assert.Equal(t, "one", hostOf(t, r, "db"))
		v, err := r.Load("db", true)
		require.NoError(t, err)
		host, _ := v.String("host")
		assert.Equal(t, "one", host)

		assert.False(t, r.Reload(false))
		assert.Equal(t, "one", hostOf(t, r, "db"))

		// Reset is the only way out
		r.Reset()
		assert.Equal(t, "two", hostOf(t, r, "db"))
	})

	t.Run("ZeroIntervalDisables", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		r, err := env.builder("/cfg").WithReloadInterval(0).Build()
		require.NoError(t, err)
		assert.False(t, r.ReloadEnabled())

		r = env.registry("/cfg")
		require.NoError(t, r.SetReloadInterval(0))
		assert.False(t, r.ReloadEnabled())

		assert.ErrorIs(t, r.SetReloadInterval(-time.Second), ErrInvalidReloadInterval)
	})

	t.Run("SnapshotKeepsListing", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: one\n")
		r := env.registry("/cfg")
		assert.Equal(t, "one", hostOf(t, r, "db"))

		calls := 0
		_, err := r.OnLoadFunc(func() error { calls++; return nil }, "db")
		require.NoError(t, err)

		r.SetReloadEnabled(false)
		r.Flush()
		assert.Equal(t, "one", hostOf(t, r, "db"))
		assert.Len(t, r.LoadedFiles("db"), 1)

		// Nothing changed on disk, so re-enabling reload fires nothing
		r.SetReloadEnabled(true)
		changed, err := r.CheckForChanges()
		require.NoError(t, err)
		assert.Empty(t, changed)
		env.clock.Advance(DefaultReloadInterval + time.Second)
		assert.Equal(t, "one", hostOf(t, r, "db"))
		assert.Equal(t, 1, calls)

		// A change made while frozen is detected against the served files
		r.SetReloadEnabled(false)
		env.write("/cfg/db.yml", "host: two\n")
		r.Flush()
		assert.Equal(t, "one", hostOf(t, r, "db"))
		r.SetReloadEnabled(true)
		changed, err = r.CheckForChanges()
		require.NoError(t, err)
		assert.Equal(t, []string{"db"}, changed)
		assert.Equal(t, "two", hostOf(t, r, "db"))
		assert.Equal(t, 2, calls)
	})

	t.Run("ReloadEnabledAgain", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: one\n")
		r := env.registry("/cfg")

		r.SetReloadEnabled(false)
		assert.Equal(t, "one", hostOf(t, r, "db"))
		env.write("/cfg/db.yml", "host: two\n")

		r.SetReloadEnabled(true)
		assert.True(t, r.Reload(false))
		assert.Equal(t, "two", hostOf(t, r, "db"))
	})
}

func TestWithoutReload(t *testing.T) {
	t.Run("ChecksOnceAfterwards", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: one\n")
		r := env.registry("/cfg")
		assert.Equal(t, "one", hostOf(t, r, "db"))

		calls := 0
		_, err := r.OnLoadFunc(func() error { calls++; return nil }, "db")
		require.NoError(t, err)

		err = r.WithoutReload(func() error {
			assert.False(t, r.ReloadEnabled())
			env.write("/cfg/db.yml", "host: two\n")
			env.clock.Advance(DefaultReloadInterval + time.Second)
			assert.Equal(t, "one", hostOf(t, r, "db"))
			return nil
		})
		require.NoError(t, err)

		assert.True(t, r.ReloadEnabled())
		assert.Equal(t, 2, calls)
		assert.Equal(t, "two", hostOf(t, r, "db"))
	})

	t.Run("ReturnsWorkError", func(t *testing.T) {
		r := newTestEnv(t).registry()
		boom := errors.New("boom")

		err := r.WithoutReload(func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.True(t, r.ReloadEnabled())
	})

	t.Run("RestoresOnPanic", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "host: one\n")
		r := env.registry("/cfg")
		assert.Equal(t, "one", hostOf(t, r, "db"))

		calls := 0
		_, err := r.OnLoadFunc(func() error { calls++; return nil }, "db")
		require.NoError(t, err)

		assert.Panics(t, func() {
			_ = r.WithoutReload(func() error {
				env.write("/cfg/db.yml", "host: two\n")
				panic("work failed")
			})
		})
		assert.True(t, r.ReloadEnabled())

		// The change made before the panic is still picked up
		assert.Equal(t, 2, calls)
		assert.Equal(t, "two", hostOf(t, r, "db"))
	})

	t.Run("Nested", func(t *testing.T) {
		r := newTestEnv(t).registry()

		err := r.WithoutReload(func() error {
			err := r.WithoutReload(func() error {
				assert.False(t, r.ReloadEnabled())
				return nil
			})
			assert.False(t, r.ReloadEnabled(), "inner scope restores the outer state")
			return err
		})
		require.NoError(t, err)
		assert.True(t, r.ReloadEnabled())
	})

	t.Run("KeepsDisabled", func(t *testing.T) {
		env := newTestEnv(t)
		r, err := env.builder().WithReloadDisabled().Build()
		require.NoError(t, err)

		require.NoError(t, r.WithoutReload(func() error { return nil }))
		assert.False(t, r.ReloadEnabled())
	})
}

func TestFlush(t *testing.T) {
	t.Run("NamedFlushIsIsolated", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/a.yml", "host: a\n")
		env.write("/cfg/b.yml", "host: b\n")
		r := env.registry("/cfg")
		mustConfig(t, r, "a")
		mustConfig(t, r, "b")

		r.Flush("a")
		assert.Equal(t, []string{"b"}, r.CachedNames())

		// File cache stays: content changed under the same mtime is not reread
		env.writeKeepMtime("/cfg/a.yml", "host: a2\n")
		assert.Equal(t, "a", hostOf(t, r, "a"))
	})

	t.Run("UnconfirmedEntryIsReread", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/a.yml", "host: a\n")
		r := env.registry("/cfg")
		mustConfig(t, r, "a")

		// Nothing confirms the entry of a flushed name, so after the
		// interval it is read again even though the mtime is unchanged
		r.Flush("a")
		env.writeKeepMtime("/cfg/a.yml", "host: a2\n")
		env.clock.Advance(DefaultReloadInterval + time.Second)
		assert.Equal(t, "a2", hostOf(t, r, "a"))
	})

	t.Run("FullFlushIsCold", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/a.yml", "host: a\n")
		r := env.registry("/cfg")
		mustConfig(t, r, "a")

		env.writeKeepMtime("/cfg/a.yml", "host: a2\n")
		r.Flush()
		assert.Empty(t, r.CachedNames())
		assert.Equal(t, "a2", hostOf(t, r, "a"))
	})

	t.Run("ForceLoadRereads", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/a.yml", "host: a\n")
		r := env.registry("/cfg")
		mustConfig(t, r, "a")

		env.writeKeepMtime("/cfg/a.yml", "host: forced\n")
		v, err := r.Load("a", false)
		require.NoError(t, err)
		host, _ := v.String("host")
		assert.Equal(t, "a", host)

		v, err = r.Load("a", true)
		require.NoError(t, err)
		host, _ = v.String("host")
		assert.Equal(t, "forced", host)
		assert.Equal(t, "forced", hostOf(t, r, "a"))
	})
}

func TestFailedBuildKeepsPriorState(t *testing.T) {
	env := newTestEnv(t, "/cfg")
	env.write("/cfg/db.yml", "host: good\n")
	r := env.registry("/cfg")

	calls := 0
	_, err := r.OnLoadFunc(func() error { calls++; return nil }, "db")
	require.NoError(t, err)
	assert.Equal(t, "good", hostOf(t, r, "db"))
	files := r.LoadedFiles("db")

	env.write("/cfg/db.yml", "host: [broken\n")
	env.clock.Advance(DefaultReloadInterval + time.Second)

	_, err = r.Config("db")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, 1, calls)

	r.mu.RLock()
	cached := r.merged["db"]
	r.mu.RUnlock()
	host, _ := cached.String("host")
	assert.Equal(t, "good", host)
	assert.Equal(t, files, r.LoadedFiles("db"))

	// The failure is retried on the next lookup, not after another interval
	env.write("/cfg/db.yml", "host: fixed\n")
	assert.Equal(t, "fixed", hostOf(t, r, "db"))
	assert.Equal(t, 2, calls)

	t.Run("WeaveConflict", func(t *testing.T) {
		env := newTestEnv(t, "/cfg")
		env.write("/cfg/db.yml", "pool:\n  size: 1\n")
		env.write("/cfg/db_local.yml", "pool: [1, 2]\n")
		r := env.registry("/cfg")

		_, err := r.Config("db")
		assert.ErrorIs(t, err, ErrWeaveConflict)
		assert.Empty(t, r.CachedNames())
	})
}

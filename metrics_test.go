// FILE: lixenwraith/cascade/metrics_test.go
package cascade

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, "/cfg")
	env.write("/cfg/db.yml", "host: db1\n")

	m := NewMetrics(prometheus.NewRegistry())
	r, err := env.builder("/cfg").WithMetrics(m).Build()
	require.NoError(t, err)

	// Setting load paths flushes once
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes))

	mustConfig(t, r, "db")
	mustConfig(t, r, "db")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesLoaded.WithLabelValues("yml")))

	t.Run("ParseError", func(t *testing.T) {
		env.write("/cfg/broken.yml", "a: [1\n")
		_, err := r.Config("broken")
		require.Error(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.loadErrors.WithLabelValues("parse")))
	})

	t.Run("ReloadAndCallbacks", func(t *testing.T) {
		_, err := r.OnLoadFunc(func() error { return nil }, "db")
		require.NoError(t, err)
		// Registration runs the callback directly, outside the counter
		assert.Equal(t, 0.0, testutil.ToFloat64(m.callbackFires))

		env.write("/cfg/db_local.yml", "host: db2\n")
		env.clock.Advance(DefaultReloadInterval + time.Second)
		mustConfig(t, r, "db")

		assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("db")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.callbackFires))
		// Only the new file was parsed
		assert.Equal(t, 2.0, testutil.ToFloat64(m.filesLoaded.WithLabelValues("yml")))
	})

	t.Run("Flush", func(t *testing.T) {
		r.Flush("db")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes), "named flush is not counted")
		r.Flush()
		assert.Equal(t, 2.0, testutil.ToFloat64(m.flushes))
	})

	t.Run("NilMetrics", func(t *testing.T) {
		var none *Metrics
		assert.NotPanics(t, func() {
			none.lookup(true)
			none.fileLoaded("yml")
			none.loadError("read")
			none.reloaded("db")
			none.flushed()
			none.callbackFired()
		})
	})
}

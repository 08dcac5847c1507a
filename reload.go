// FILE: lixenwraith/cascade/reload.go
package cascade

import (
	"fmt"
	"time"
)

// ReloadEnabled reports whether file changes are picked up.
func (r *Registry) ReloadEnabled() bool {
	return r.reloadEnabled.Load()
}

// SetReloadEnabled turns change detection on or off. While off, lookups keep
// returning the data of the last successful load, even across flushes.
func (r *Registry) SetReloadEnabled(enabled bool) {
	r.reloadEnabled.Store(enabled)
}

// ReloadInterval returns the minimum time between change checks of one name.
func (r *Registry) ReloadInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reloadInterval
}

// SetReloadInterval sets the minimum time between change checks of one name.
// Zero disables reload.
func (r *Registry) SetReloadInterval(interval time.Duration) error {
	if interval < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidReloadInterval, interval)
	}

	r.mu.Lock()
	r.reloadInterval = interval
	r.mu.Unlock()

	if interval == 0 {
		r.SetReloadEnabled(false)
	}
	return nil
}

// Reload flushes every cache when force is set or reload is enabled.
// It reports whether a flush happened.
func (r *Registry) Reload(force bool) bool {
	if force || r.ReloadEnabled() {
		r.Flush()
		return true
	}
	return false
}

// WithoutReload runs fn with reload disabled and restores the previous
// setting afterwards, also when fn panics. When reload is enabled again,
// all published names are checked for changes once. A panic is re-raised
// after the check; a check error is then logged instead of returned.
func (r *Registry) WithoutReload(fn func() error) (err error) {
	previous := r.reloadEnabled.Swap(false)
	completed := false

	defer func() {
		r.reloadEnabled.Store(previous)
		if !previous {
			return
		}
		_, checkErr := r.CheckForChanges()
		if checkErr == nil {
			return
		}
		if !completed {
			r.logger.Error("change check after reload scope failed", "error", checkErr)
			return
		}
		if err == nil {
			err = checkErr
		}
	}()

	err = fn()
	completed = true
	return err
}

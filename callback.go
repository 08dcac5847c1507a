// FILE: lixenwraith/cascade/callback.go
package cascade

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// AnyConfig registers a callback for changes of every config name.
const AnyConfig = "ANY"

// Callback is a registered on-load hook. Identity is the pointer: the same
// *Callback registered twice under one name is stored once, and a callback
// registered under several names runs once per change.
type Callback struct {
	fn func() error
}

// NewCallback wraps fn.
func NewCallback(fn func() error) *Callback {
	return &Callback{fn: fn}
}

// Call runs the callback.
func (c *Callback) Call() error {
	return c.fn()
}

// OnLoad runs cb once immediately and, if it succeeds, registers it to run
// after any of names is reloaded because its files changed. Without names
// the callback is registered under AnyConfig.
func (r *Registry) OnLoad(cb *Callback, names ...string) error {
	if cb == nil || cb.fn == nil {
		return ErrNilCallback
	}
	if err := cb.Call(); err != nil {
		return fmt.Errorf("on-load callback failed: %w", err)
	}

	if len(names) == 0 {
		names = []string{AnyConfig}
	}

	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	for _, name := range names {
		if !slices.Contains(r.callbacks[name], cb) {
			r.callbacks[name] = append(r.callbacks[name], cb)
		}
	}
	return nil
}

// OnLoadFunc wraps fn in a Callback and registers it with OnLoad.
// The returned Callback can be passed to RemoveCallback.
func (r *Registry) OnLoadFunc(fn func() error, names ...string) (*Callback, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	cb := NewCallback(fn)
	if err := r.OnLoad(cb, names...); err != nil {
		return nil, err
	}
	return cb, nil
}

// RemoveCallback unregisters cb from every name. It reports whether cb was registered.
func (r *Registry) RemoveCallback(cb *Callback) bool {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()

	removed := false
	for name, list := range r.callbacks {
		if i := slices.Index(list, cb); i >= 0 {
			r.callbacks[name] = slices.Delete(slices.Clone(list), i, i+1)
			removed = true
		}
	}
	return removed
}

// fireOnLoad runs the AnyConfig callbacks, then the callbacks of name, each at
// most once, in registration order. The first error stops the run.
func (r *Registry) fireOnLoad(name string) error {
	r.cbMu.Lock()
	pending := make([]*Callback, 0, len(r.callbacks[AnyConfig])+len(r.callbacks[name]))
	pending = append(pending, r.callbacks[AnyConfig]...)
	if name != AnyConfig {
		pending = append(pending, r.callbacks[name]...)
	}
	r.cbMu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	fired := mapset.NewThreadUnsafeSet[*Callback]()
	for _, cb := range pending {
		if !fired.Add(cb) {
			continue
		}
		r.metrics.callbackFired()
		if err := cb.Call(); err != nil {
			return fmt.Errorf("on-load callback for '%s' failed: %w", name, err)
		}
	}

	r.logger.Debug("on-load callbacks fired", "name", name, "count", fired.Cardinality())
	return nil
}

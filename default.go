// FILE: lixenwraith/cascade/default.go
package cascade

import (
	"sync"
)

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide Registry, created on first use from the
// environment. Load paths come from CONFIG_PATH when it lists valid
// directories; otherwise none are set.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = New()
		if paths := EnvLoadPaths(); len(paths) > 0 {
			if err := defaultRegistry.SetLoadPaths(paths...); err != nil {
				defaultRegistry.logger.Warn("ignoring invalid CONFIG_PATH", "error", err)
			}
		}
	})
	return defaultRegistry
}

// Config returns the merged configuration for name from the default registry.
func Config(name string) (Value, error) {
	return Default().Config(name)
}

// Get returns the value at path inside the named config of the default registry.
func Get(name string, path ...any) (Value, error) {
	return Default().Get(name, path...)
}

// App returns key from the application config of the default registry.
func App(key string) (Value, error) {
	return Default().App(key)
}

// OnLoad registers cb with the default registry.
func OnLoad(cb *Callback, names ...string) error {
	return Default().OnLoad(cb, names...)
}

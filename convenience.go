// File: lixenwraith/cascade/convenience.go
package cascade

import (
	"fmt"
	"strings"
)

// Quick creates a Registry for app with a single call: load paths from
// CONFIG_PATH plus the existing default search directories, and the named
// configs preloaded.
// This is the recommended way to initialize configuration for most applications
func Quick(app string, preload ...string) (*Registry, error) {
	return NewBuilder().
		WithEnvLoadPaths().
		WithDiscovery(app).
		WithPreload(preload...).
		Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(app string, preload ...string) *Registry {
	r, err := Quick(app, preload...)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return r
}

// Validate checks that all required dot paths of the named config hold a non-null value
func (r *Registry) Validate(name string, required ...string) error {
	root, err := r.Config(name)
	if err != nil {
		return err
	}

	var missing []string
	for _, path := range required {
		if v, found := root.Lookup(path); !found || v.IsNull() {
			missing = append(missing, path)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration in '%s': %s", name, strings.Join(missing, ", "))
	}

	return nil
}

// Debug returns a formatted string showing the files and flattened values of a config
func (r *Registry) Debug(name string) string {
	root, err := r.Config(name)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Configuration Debug Info: %s\n", name))
	b.WriteString(fmt.Sprintf("Tier: %s, Host: %s, Overlay: %q, Reload: %v\n",
		r.Tier(), r.Hostname(), r.Overlay(), r.ReloadEnabled()))
	if err != nil {
		b.WriteString(fmt.Sprintf("Error: %v\n", err))
		return b.String()
	}

	b.WriteString("Files (merge order):\n")
	for _, f := range mergeOrder(r.LoadedFiles(name)) {
		b.WriteString(fmt.Sprintf("  [%d] %s\n", f.Rank, f.Path))
	}

	b.WriteString("Current values:\n")
	for _, entry := range root.Flatten() {
		b.WriteString(fmt.Sprintf("  %s: %v\n", entry.Path, entry.Value.Interface()))
	}

	return b.String()
}

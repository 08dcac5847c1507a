// File: lixenwraith/cascade/builder.go
package cascade

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/afero"
)

// ValidatorFunc defines the signature for a function that can validate a Registry.
// It receives the fully configured *Registry and should return an error if validation fails.
type ValidatorFunc func(r *Registry) error

// Builder provides a fluent interface for building a Registry
type Builder struct {
	settings   settings
	fileTypes  []string
	loadPaths  []string
	discover   string
	preload    []string
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new registry builder with settings from the environment
func NewBuilder() *Builder {
	return &Builder{
		settings:   defaultSettings(),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithLoadPaths appends search directories, earliest first
func (b *Builder) WithLoadPaths(paths ...string) *Builder {
	b.loadPaths = append(b.loadPaths, paths...)
	return b
}

// WithLoadPathString appends search directories from a ';' or ':' delimited list
func (b *Builder) WithLoadPathString(s string) *Builder {
	b.loadPaths = append(b.loadPaths, SplitLoadPaths(s)...)
	return b
}

// WithEnvLoadPaths appends the directories listed in CONFIG_PATH
func (b *Builder) WithEnvLoadPaths() *Builder {
	b.loadPaths = append(b.loadPaths, EnvLoadPaths()...)
	return b
}

// WithDiscovery appends the existing default search directories of app
// (system, XDG and working directory) at build time
func (b *Builder) WithDiscovery(app string) *Builder {
	b.discover = app
	return b
}

// WithOverlay sets the ambient overlay token
func (b *Builder) WithOverlay(overlay string) *Builder {
	b.settings.overlay = overlay
	return b
}

// WithTier sets the deployment tier used in suffixes
func (b *Builder) WithTier(tier string) *Builder {
	b.settings.tier = tier
	return b
}

// WithHostname sets the host name used in suffixes
func (b *Builder) WithHostname(host string) *Builder {
	b.settings.hostname = host
	return b
}

// WithFileTypes sets the searched extensions in search order
func (b *Builder) WithFileTypes(exts ...string) *Builder {
	b.fileTypes = slices.Clone(exts)
	return b
}

// WithReloadInterval sets the minimum time between change checks of one name.
// Zero disables reload.
func (b *Builder) WithReloadInterval(interval time.Duration) *Builder {
	if interval < 0 {
		b.err = fmt.Errorf("%w: %v", ErrInvalidReloadInterval, interval)
		return b
	}
	b.settings.reloadInterval = interval
	return b
}

// WithReloadDisabled starts the registry with change detection off
func (b *Builder) WithReloadDisabled() *Builder {
	b.settings.reloadEnabled = false
	return b
}

// WithFs sets the filesystem used for all file access
func (b *Builder) WithFs(fsys afero.Fs) *Builder {
	if fsys != nil {
		b.settings.fs = fsys
	}
	return b
}

// WithLogger sets the structured logger. The default discards all output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.settings.logger = logger
	}
	return b
}

// WithMetrics sets the Prometheus collectors to update
func (b *Builder) WithMetrics(m *Metrics) *Builder {
	b.settings.metrics = m
	return b
}

// WithClock sets the time source used for reload interval checks
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.settings.now = now
	}
	return b
}

// WithTagName sets the struct tag used by Scan
func (b *Builder) WithTagName(tag string) *Builder {
	if tag != "" {
		b.settings.tagName = tag
	}
	return b
}

// WithPreload loads the named configs during Build so that errors surface early
func (b *Builder) WithPreload(names ...string) *Builder {
	b.preload = append(b.preload, names...)
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build creates the Registry with all specified options
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}

	r := newRegistry(b.settings)

	if b.fileTypes != nil {
		if err := r.SetFileTypes(b.fileTypes...); err != nil {
			return nil, err
		}
	}

	paths := slices.Clone(b.loadPaths)
	if b.discover != "" {
		paths = append(paths, DiscoverLoadPaths(b.settings.fs, b.discover)...)
	}
	if len(paths) > 0 {
		if err := r.SetLoadPaths(paths...); err != nil {
			return nil, fmt.Errorf("failed to set load paths: %w", err)
		}
	}

	for _, name := range b.preload {
		if _, err := r.Config(name); err != nil {
			return nil, fmt.Errorf("failed to preload config '%s': %w", name, err)
		}
	}

	// Run validators
	for _, validator := range b.validators {
		if err := validator(r); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return r, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("registry build failed: %v", err))
	}
	return r
}

// BuildAndScan builds the registry and decodes the basePath section of the
// named config into the provided target struct pointer
func (b *Builder) BuildAndScan(name, basePath string, target any) (*Registry, error) {
	r, err := b.Build()
	if err != nil {
		return nil, err
	}

	if err := r.Scan(name, basePath, target); err != nil {
		return nil, fmt.Errorf("failed to scan config '%s' into target: %w", name, err)
	}

	return r, nil
}

// FILE: lixenwraith/cascade/loadpath.go
package cascade

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// SplitLoadPaths splits a delimited directory list. The delimiter is ';' when
// present, otherwise the platform list separator (':' or '!' on Windows).
// Empty entries are dropped.
func SplitLoadPaths(s string) []string {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = "!"
	}
	if strings.Contains(s, ";") {
		sep = ";"
	}

	var paths []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}

// validateLoadPaths cleans each path and checks it is an existing directory.
// Every invalid entry is reported.
func validateLoadPaths(fsys afero.Fs, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoLoadPaths
	}

	var result *multierror.Error
	cleaned := make([]string, 0, len(paths))
	for _, dir := range paths {
		abs, err := filepath.Abs(dir)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w '%s': %w", ErrInvalidLoadPath, dir, err))
			continue
		}

		isDir, err := afero.IsDir(fsys, abs)
		if err != nil || !isDir {
			result = multierror.Append(result, fmt.Errorf("%w '%s': not an existing directory", ErrInvalidLoadPath, dir))
			continue
		}
		cleaned = append(cleaned, abs)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// uniqueStrings drops repeated entries, keeping the first occurrence.
func uniqueStrings(paths []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen.Add(p) {
			unique = append(unique, p)
		}
	}
	return unique
}

// SetLoadPaths replaces the search directories, earliest first, and forces a full reload.
func (r *Registry) SetLoadPaths(paths ...string) error {
	cleaned, err := validateLoadPaths(r.fs, paths)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.loadPaths = uniqueStrings(cleaned)
	r.mu.Unlock()

	r.logger.Debug("load paths set", "paths", cleaned)
	r.Reload(true)
	return nil
}

// SetLoadPathString replaces the search directories from a delimited list.
func (r *Registry) SetLoadPathString(s string) error {
	return r.SetLoadPaths(SplitLoadPaths(s)...)
}

// AddLoadPath appends a search directory. It reports false without reloading
// when the directory is already registered.
func (r *Registry) AddLoadPath(path string) (bool, error) {
	cleaned, err := validateLoadPaths(r.fs, []string{path})
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	if slices.Contains(r.loadPaths, cleaned[0]) {
		r.mu.Unlock()
		return false, nil
	}
	r.loadPaths = append(slices.Clone(r.loadPaths), cleaned[0])
	r.mu.Unlock()

	r.logger.Debug("load path added", "path", cleaned[0])
	r.Reload(true)
	return true, nil
}

// LoadPaths returns the registered search directories, earliest first.
func (r *Registry) LoadPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.loadPaths)
}

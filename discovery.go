// FILE: lixenwraith/cascade/discovery.go
package cascade

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultSearchPaths returns the conventional config directories of app,
// most specific first: working directory, XDG user config, XDG system
// config, then /etc.
func DefaultSearchPaths(app string) []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "config"))
	}

	// XDG paths
	paths = append(paths, getXDGConfigPaths(app)...)

	return uniqueStrings(paths)
}

// DiscoverLoadPaths returns the entries of DefaultSearchPaths that exist as directories in fsys.
func DiscoverLoadPaths(fsys afero.Fs, app string) []string {
	var found []string
	for _, dir := range DefaultSearchPaths(app) {
		if ok, err := afero.IsDir(fsys, dir); err == nil && ok {
			found = append(found, dir)
		}
	}
	return found
}

// getXDGConfigPaths returns XDG-compliant config search paths
func getXDGConfigPaths(appName string) []string {
	var paths []string

	// XDG_CONFIG_HOME
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	// XDG_CONFIG_DIRS
	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		// Default system paths
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}

// Names lists the config names available in the load paths: every file with
// a searched extension, with its tier, host and overlay suffixes removed.
func (r *Registry) Names() ([]string, error) {
	r.mu.RLock()
	dirs := slices.Clone(r.loadPaths)
	exts := slices.Clone(r.fileTypes)
	suffixes := slices.Clone(r.standardSuffixes)
	r.mu.RUnlock()

	if len(exts) == 0 {
		return nil, nil
	}

	sortSuffixesLongestFirst(suffixes)

	pattern := "*.{" + strings.Join(exts, ",") + "}"
	seen := make(map[string]struct{})
	var names []string

	for _, dir := range dirs {
		fsys := afero.NewIOFS(afero.NewBasePathFs(r.fs, dir))
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to list config files in '%s': %w", dir, err)
		}

		for _, match := range matches {
			name := configNameOf(match, suffixes)
			if _, ok := seen[name]; ok || name == "" {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return names, nil
}

// sortSuffixesLongestFirst orders suffixes so "x_production_local" is not cut to "x_production".
func sortSuffixesLongestFirst(suffixes []Suffix) {
	slices.SortStableFunc(suffixes, func(a, b Suffix) int {
		return len(b.String()) - len(a.String())
	})
}

// configNameOf strips the extension, one standard suffix and an overlay token from a file name.
func configNameOf(file string, suffixes []Suffix) string {
	stem := strings.TrimSuffix(file, filepath.Ext(file))

	for _, s := range suffixes {
		token := s.String()
		if token == "" {
			continue
		}
		if trimmed, ok := strings.CutSuffix(stem, "_"+token); ok && trimmed != "" {
			stem = trimmed
			break
		}
	}

	if loc := explicitOverlayPattern.FindStringIndex(stem); loc != nil && loc[0] > 0 {
		stem = stem[:loc[0]]
	}
	return stem
}

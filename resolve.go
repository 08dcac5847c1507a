// FILE: lixenwraith/cascade/resolve.go
package cascade

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// CandidateFile is one existing file contributing to a config name.
type CandidateFile struct {
	Name         string    // Config name as requested
	SuffixedName string    // Base name plus suffix, without extension
	Path         string    // Absolute file path
	Ext          string    // File type without the dot
	ModTime      time.Time // Modification time at listing
	Rank         int       // Suffix index, higher wins on merge
}

// CandidateFiles lists existing files for name in search order: load paths in
// reverse registration order, then suffixes by precedence, then file types in
// declared order. A path reachable twice is listed once.
func (r *Registry) CandidateFiles(name string) ([]CandidateFile, error) {
	base, suffixes := r.SuffixesFor(name)

	r.mu.RLock()
	dirs := slices.Clone(r.loadPaths)
	exts := slices.Clone(r.fileTypes)
	r.mu.RUnlock()

	seen := mapset.NewThreadUnsafeSet[string]()
	files := make([]CandidateFile, 0)

	for i := len(dirs) - 1; i >= 0; i-- {
		for rank, suffix := range suffixes {
			suffixed := suffix.Join(base)
			for _, ext := range exts {
				path := filepath.Join(dirs[i], suffixed+"."+ext)
				if seen.Contains(path) {
					continue
				}

				info, err := r.fs.Stat(path)
				if err != nil {
					if errors.Is(err, fs.ErrNotExist) {
						continue
					}
					return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
				}
				if info.IsDir() {
					continue
				}

				seen.Add(path)
				files = append(files, CandidateFile{
					Name:         name,
					SuffixedName: suffixed,
					Path:         path,
					Ext:          ext,
					ModTime:      info.ModTime(),
					Rank:         rank,
				})
			}
		}
	}

	return files, nil
}

// mergeOrder returns files sorted by suffix precedence, lowest first.
// Files sharing a rank keep their search order.
func mergeOrder(files []CandidateFile) []CandidateFile {
	ordered := slices.Clone(files)
	slices.SortStableFunc(ordered, func(a, b CandidateFile) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return ordered
}

// sameFiles reports whether two listings name the same paths with the same mtimes in the same order.
func sameFiles(a, b []CandidateFile) bool {
	return slices.EqualFunc(a, b, func(x, y CandidateFile) bool {
		return x.Path == y.Path && x.ModTime.Equal(y.ModTime)
	})
}

// FILE: lixenwraith/cascade/cache.go
package cascade

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/afero"
)

// fileEntry is the cached decode of one file. checkedAt is the last time
// its mtime was confirmed against the filesystem.
type fileEntry struct {
	content   Value
	modTime   time.Time
	checkedAt time.Time
}

// snapshot holds the decoded files of a build in merge order, with the
// listing they came from.
type snapshot struct {
	contents []Value
	files    []CandidateFile
}

// Config returns the merged configuration for name. At most once per reload
// interval per name, the candidate files are checked for changes first.
// A name without any files yields an empty mapping.
func (r *Registry) Config(name string) (Value, error) {
	if r.autoCheck(name) {
		if _, err := r.CheckForChanges(name); err != nil {
			return Value{}, err
		}
	}
	return r.configData(name, false)
}

// Load returns the merged configuration for name. With force, every candidate
// file is read again and the result republished, unless reload is disabled
// and a snapshot of an earlier load exists.
func (r *Registry) Load(name string, force bool) (Value, error) {
	if !force {
		return r.Config(name)
	}
	return r.configData(name, true)
}

func (r *Registry) configData(name string, force bool) (Value, error) {
	if !force {
		r.mu.RLock()
		v, ok := r.merged[name]
		r.mu.RUnlock()
		if ok {
			r.metrics.lookup(true)
			return v, nil
		}
	}

	r.metrics.lookup(false)
	return r.build(name, force)
}

// autoCheck reports whether name is due for a change check and records the check time.
func (r *Registry) autoCheck(name string) bool {
	now := r.now()

	r.mu.RLock()
	last, ok := r.lastChecked[name]
	interval := r.reloadInterval
	r.mu.RUnlock()
	if ok && now.Sub(last) <= interval {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok = r.lastChecked[name]
	if !ok || now.Sub(last) > r.reloadInterval {
		r.lastChecked[name] = now
		return true
	}
	return false
}

// build resolves, decodes and weaves the files of name, then publishes the result.
// Nothing is committed when any step fails.
func (r *Registry) build(name string, force bool) (Value, error) {
	r.mu.RLock()
	gen := r.generation
	snap, hasSnapshot := r.snapshots[name]
	interval := r.reloadInterval
	r.mu.RUnlock()

	reloadEnabled := r.ReloadEnabled()
	if hasSnapshot && !reloadEnabled {
		merged, err := WeaveAll(snap.contents, false)
		if err != nil {
			r.buildFailed(name, "weave")
			return Value{}, fmt.Errorf("failed to merge config '%s': %w", name, err)
		}
		r.mu.Lock()
		if r.generation == gen {
			// The listing goes back with the result so that a later change
			// check compares against the files actually served
			r.merged[name] = merged
			r.fileSets[name] = snap.files
			r.loaded[name] = snap.files
		}
		r.mu.Unlock()
		r.logger.Debug("config served from snapshot", "name", name)
		return merged, nil
	}

	files, err := r.CandidateFiles(name)
	if err != nil {
		r.buildFailed(name, "stat")
		return Value{}, err
	}

	now := r.now()
	ordered := mergeOrder(files)
	contents := make([]Value, 0, len(ordered))
	updates := make(map[string]fileEntry)
	reparsed := 0

	for _, f := range ordered {
		r.mu.RLock()
		entry, cached := r.files[f.Path]
		r.mu.RUnlock()

		// An entry not confirmed within the reload interval is read again
		stale := reloadEnabled && now.Sub(entry.checkedAt) > interval
		if cached && !force && !stale && entry.modTime.Equal(f.ModTime) {
			entry.checkedAt = now
			updates[f.Path] = entry
			contents = append(contents, entry.content)
			continue
		}

		content, err := r.readFile(f)
		if err != nil {
			return Value{}, err
		}
		updates[f.Path] = fileEntry{content: content, modTime: f.ModTime, checkedAt: now}
		contents = append(contents, content)
		reparsed++
	}

	merged, err := WeaveAll(contents, false)
	if err != nil {
		r.buildFailed(name, "weave")
		return Value{}, fmt.Errorf("failed to merge config '%s': %w", name, err)
	}

	r.mu.Lock()
	if r.generation == gen {
		maps.Copy(r.files, updates)
		r.fileSets[name] = files
		r.snapshots[name] = snapshot{contents: contents, files: files}
		r.merged[name] = merged
		r.loaded[name] = files
	}
	r.mu.Unlock()

	r.logger.Debug("config built",
		"name", name,
		"files", len(files),
		"reparsed", reparsed,
		"force", force,
	)
	return merged, nil
}

// readFile reads and decodes one candidate file.
func (r *Registry) readFile(f CandidateFile) (Value, error) {
	data, err := afero.ReadFile(r.fs, f.Path)
	if err != nil {
		r.buildFailed(f.Name, "read")
		return Value{}, fmt.Errorf("failed to read config file '%s': %w", f.Path, err)
	}

	content, err := r.decodeFile(f.Path, f.Ext, data)
	if err != nil {
		r.buildFailed(f.Name, "parse")
		return Value{}, err
	}

	r.metrics.fileLoaded(f.Ext)
	r.logger.Info("config file loaded", "name", f.Name, "path", f.Path)
	return content, nil
}

// buildFailed clears the auto-check gate of name so the next lookup checks again.
func (r *Registry) buildFailed(name, stage string) {
	r.mu.Lock()
	delete(r.lastChecked, name)
	r.mu.Unlock()
	r.metrics.loadError(stage)
	r.logger.Debug("config build failed", "name", name, "stage", stage)
}

// CheckForChanges compares the current candidate files of each name against
// the last-known listing. A changed name that has a published result is
// rebuilt and its callbacks fired. Without names every published name is
// checked. Nothing is checked while reload is disabled.
// It returns the names that were rebuilt.
func (r *Registry) CheckForChanges(names ...string) ([]string, error) {
	if len(names) == 0 {
		r.mu.RLock()
		names = slices.Sorted(maps.Keys(r.merged))
		r.mu.RUnlock()
	}

	var changed []string
	for _, name := range names {
		ok, err := r.reloadOnChange(name)
		if ok {
			changed = append(changed, name)
		}
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (r *Registry) reloadOnChange(name string) (bool, error) {
	if !r.ReloadEnabled() {
		return false, nil
	}

	r.mu.RLock()
	_, published := r.merged[name]
	known, hasListing := r.fileSets[name]
	r.mu.RUnlock()
	if !published {
		return false, nil
	}

	files, err := r.CandidateFiles(name)
	if err != nil {
		r.buildFailed(name, "stat")
		return false, err
	}
	r.confirmFiles(files)
	if hasListing && sameFiles(known, files) {
		return false, nil
	}

	r.logger.Info("config files changed", "name", name)
	if _, err := r.build(name, false); err != nil {
		return false, err
	}
	r.metrics.reloaded(name)

	return true, r.fireOnLoad(name)
}

// confirmFiles refreshes checkedAt of every cached entry whose mtime matches files.
func (r *Registry) confirmFiles(files []CandidateFile) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range files {
		if entry, ok := r.files[f.Path]; ok && entry.modTime.Equal(f.ModTime) {
			entry.checkedAt = now
			r.files[f.Path] = entry
		}
	}
}

// Flush drops cached data. With names, only their merged results are
// dropped. Without, every cache table is cleared; snapshots are kept so
// that a disabled reload stays in effect.
func (r *Registry) Flush(names ...string) {
	if len(names) > 0 {
		r.mu.Lock()
		for _, name := range names {
			delete(r.merged, name)
		}
		r.mu.Unlock()
		r.logger.Debug("config cache flushed", "names", names)
		return
	}

	r.mu.Lock()
	r.resetTables()
	r.generation++
	r.mu.Unlock()

	r.suffixCache.DeleteAll()
	r.metrics.flushed()
	r.logger.Info("config cache flushed")
}

// LoadedFiles returns the files that made up the last successful build of name.
func (r *Registry) LoadedFiles(name string) []CandidateFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.loaded[name])
}

// CachedNames returns every config name with a published result, sorted.
func (r *Registry) CachedNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.merged))
}

// FILE: lixenwraith/cascade/registry.go
package cascade

import (
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/spf13/afero"
)

// Registry resolves, merges and caches cascading configuration by name.
// All methods are safe for concurrent use. Files are read without holding
// the lock; results are published by replacing a cache slot.
type Registry struct {
	mu      sync.RWMutex
	fs      afero.Fs
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
	tagName string

	loadPaths        []string
	fileTypes        []string
	decoders         map[string]Decoder
	tier             string
	hostname         string
	overlay          string
	standardSuffixes []Suffix
	reloadInterval   time.Duration
	reloadEnabled    atomic.Bool

	suffixCache *ttlcache.Cache[string, suffixSet]
	files       map[string]fileEntry       // Decoded file by absolute path
	fileSets    map[string][]CandidateFile // Last-known listing by name
	merged      map[string]Value           // Published result by name
	snapshots   map[string]snapshot        // Last build by name, survives full flushes
	lastChecked map[string]time.Time       // Auto-check gate by name
	loaded      map[string][]CandidateFile // Files of the last successful build
	generation  uint64                     // Bumped by full flushes

	cbMu      sync.Mutex
	callbacks map[string][]*Callback
}

// settings carries the construction-time options of a Registry.
type settings struct {
	fs             afero.Fs
	logger         *slog.Logger
	metrics        *Metrics
	now            func() time.Time
	tagName        string
	fileTypes      []string
	tier           string
	hostname       string
	overlay        string
	reloadInterval time.Duration
	reloadEnabled  bool
}

func defaultSettings() settings {
	return settings{
		fs:             afero.NewOsFs(),
		logger:         slog.New(slog.DiscardHandler),
		now:            time.Now,
		tagName:        "cascade",
		fileTypes:      slices.Clone(DefaultFileTypes),
		tier:           EnvTierName(),
		hostname:       EnvHostName(),
		overlay:        EnvOverlayName(),
		reloadInterval: DefaultReloadInterval,
		reloadEnabled:  true,
	}
}

// New creates a Registry with settings taken from the environment and no load paths.
func New() *Registry {
	return newRegistry(defaultSettings())
}

func newRegistry(s settings) *Registry {
	r := &Registry{
		fs:               s.fs,
		logger:           s.logger,
		metrics:          s.metrics,
		now:              s.now,
		tagName:          s.tagName,
		fileTypes:        s.fileTypes,
		decoders:         defaultDecoders(),
		tier:             s.tier,
		hostname:         s.hostname,
		overlay:          s.overlay,
		standardSuffixes: standardSuffixes(s.tier, s.hostname),
		reloadInterval:   s.reloadInterval,
		suffixCache:      newSuffixCache(),
		callbacks:        make(map[string][]*Callback),
	}
	r.reloadEnabled.Store(s.reloadEnabled && s.reloadInterval > 0)
	r.resetTables()
	return r
}

// resetTables replaces every cache table except snapshots. Caller holds mu or owns r.
func (r *Registry) resetTables() {
	r.files = make(map[string]fileEntry)
	r.fileSets = make(map[string][]CandidateFile)
	r.merged = make(map[string]Value)
	r.lastChecked = make(map[string]time.Time)
	r.loaded = make(map[string][]CandidateFile)
	if r.snapshots == nil {
		r.snapshots = make(map[string]snapshot)
	}
}

// Reset drops every cached value, snapshot and callback. Load paths and
// settings are kept. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.resetTables()
	r.snapshots = make(map[string]snapshot)
	r.generation++
	r.mu.Unlock()

	r.suffixCache.DeleteAll()

	r.cbMu.Lock()
	r.callbacks = make(map[string][]*Callback)
	r.cbMu.Unlock()
}

// Tier returns the deployment tier used in suffix computation.
func (r *Registry) Tier() string {
	return r.tier
}

// Hostname returns the host name used in suffix computation.
func (r *Registry) Hostname() string {
	return r.hostname
}

// Overlay returns the ambient overlay token, or "" when none is set.
func (r *Registry) Overlay() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlay
}

// SetOverlay changes the ambient overlay. Suffix lists are recomputed, and
// merged results are dropped unless reload is disabled.
func (r *Registry) SetOverlay(overlay string) {
	r.mu.Lock()
	if r.overlay == overlay {
		r.mu.Unlock()
		return
	}
	r.overlay = overlay
	r.mu.Unlock()

	r.suffixCache.DeleteAll()
	r.logger.Debug("overlay changed", "overlay", overlay)
	r.Reload(false)
}

// Get returns the value at path inside the merged config for name.
// A missing path yields Null.
func (r *Registry) Get(name string, path ...any) (Value, error) {
	root, err := r.Config(name)
	if err != nil {
		return Value{}, err
	}
	return root.Get(path...), nil
}

// ApplicationConfig is the config name consulted by App.
const ApplicationConfig = "application"

// App returns key from the application config, falling back to the
// environment variable named by the upper-cased key.
func (r *Registry) App(key string) (Value, error) {
	root, err := r.Config(ApplicationConfig)
	if err != nil {
		return Value{}, err
	}
	if v, ok := root.Key(key); ok && !v.IsNull() {
		return v, nil
	}
	if env, ok := os.LookupEnv(strings.ToUpper(key)); ok {
		return NewScalar(env), nil
	}
	return Value{}, nil
}

// FILE: lixenwraith/cascade/watch.go
package cascade

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultMaxSubscribers = 100 // Prevent resource exhaustion

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// Debounce duration to coalesce bursts of file events
	Debounce time.Duration

	// MaxSubscribers limits concurrent subscription channels
	MaxSubscribers int
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		Debounce:       DefaultDebounce,
		MaxSubscribers: DefaultMaxSubscribers,
	}
}

// Watcher runs CheckForChanges when files in the load paths change, instead
// of waiting for the reload interval. It is the only goroutine the package
// starts and must be started explicitly with Registry.Watch.
type Watcher struct {
	reg  *Registry
	fsw  *fsnotify.Watcher
	opts WatchOptions

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	debounceTimer   *time.Timer
	watching        atomic.Bool
	checkInProgress atomic.Bool
	subscribers     map[int64]chan []string
	subscriberID    atomic.Int64
	subscribersDone bool
}

// Watch starts watching every load path directory. Stop the returned
// Watcher, or cancel ctx, to release it.
func (r *Registry) Watch(ctx context.Context, opts WatchOptions) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxSubscribers <= 0 {
		opts.MaxSubscribers = DefaultMaxSubscribers
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, dir := range r.LoadPaths() {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			r.logger.Error("failed to watch directory", "path", dir, "error", err)
			return nil, fmt.Errorf("failed to watch '%s': %w", dir, err)
		}
		r.logger.Debug("watching directory for changes", "path", dir)
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		reg:         r,
		fsw:         fsw,
		opts:        opts,
		ctx:         wctx,
		cancel:      cancel,
		subscribers: make(map[int64]chan []string),
	}

	w.watching.Store(true)
	go w.watchLoop()
	return w, nil
}

// IsWatching returns true while the event loop runs
func (w *Watcher) IsWatching() bool {
	return w.watching.Load()
}

// Subscribe returns a channel receiving the names rebuilt after each
// detected change. The channel is closed when the watcher stops.
func (w *Watcher) Subscribe() <-chan []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Closed channel when stopped or at the subscriber limit
	if w.subscribersDone || len(w.subscribers) >= w.opts.MaxSubscribers {
		ch := make(chan []string)
		close(ch)
		return ch
	}

	// Buffered channel to prevent blocking
	ch := make(chan []string, 10)
	id := w.subscriberID.Add(1)
	w.subscribers[id] = ch
	return ch
}

// Stop terminates the watcher and closes all subscriber channels
func (w *Watcher) Stop() error {
	w.cancel()

	// Stop debounce timer
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	// Wait for watch loop to exit with timeout
	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
	return nil
}

// watchLoop is the main event loop
func (w *Watcher) watchLoop() {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.reg.logger.Error("failed to close watcher", "error", err)
		}
		w.closeSubscribers()
		w.watching.Store(false)
		w.reg.logger.Info("configuration watcher stopped")
	}()

	w.reg.logger.Info("configuration watcher started")

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.reg.logger.Debug("configuration file changed",
				"file", event.Name,
				"op", event.Op.String(),
			)
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.reg.logger.Error("configuration watcher error", "error", err)
		}
	}
}

// relevant filters events down to changes of files with a searched extension
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	ext := normalizeExt(filepath.Ext(event.Name))
	return slices.Contains(w.reg.FileTypes(), ext)
}

// schedule debounces rapid changes into one check
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.performCheck)
}

// performCheck runs one CheckForChanges and notifies subscribers
func (w *Watcher) performCheck() {
	if w.ctx.Err() != nil {
		return
	}
	// Prevent concurrent checks
	if !w.checkInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.checkInProgress.Store(false)

	changed, err := w.reg.CheckForChanges()
	if err != nil {
		w.reg.logger.Error("change check failed", "error", err)
	}
	if len(changed) > 0 {
		w.notify(changed)
	}
}

// notify sends changed names to all subscribers without blocking
func (w *Watcher) notify(names []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- slices.Clone(names):
		default:
			// Channel full, skip
		}
	}
}

func (w *Watcher) closeSubscribers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, ch := range w.subscribers {
		close(ch)
		delete(w.subscribers, id)
	}
	w.subscribersDone = true
}

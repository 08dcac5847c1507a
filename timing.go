// FILE: lixenwraith/cascade/timing.go
package cascade

import "time"

// Core timing constants.
const (
	// DefaultReloadInterval is the minimum time between two change checks of one config name
	DefaultReloadInterval = 300 * time.Second

	// Watcher timings
	DefaultDebounce  = 500 * time.Millisecond // File event coalescence period
	ShutdownTimeout  = 100 * time.Millisecond // Graceful watcher termination window
	SpinWaitInterval = 5 * time.Millisecond   // CPU-friendly busy-wait quantum
)

// FILE: lixenwraith/cascade/errors.go
package cascade

import "errors"

var (
	// ErrInvalidLoadPath is returned when a load path does not exist or is not a directory
	ErrInvalidLoadPath = errors.New("invalid load path")

	// ErrNoLoadPaths is returned when a load path list is empty
	ErrNoLoadPaths = errors.New("at least one load path is required")

	// ErrUnknownFileType is returned for a file extension without a registered decoder
	ErrUnknownFileType = errors.New("unknown file type")

	// ErrWeaveConflict is returned when a mapping is woven with a sequence in non-clobber mode
	ErrWeaveConflict = errors.New("cannot weave mapping with sequence")

	// ErrNotMapping is returned when a decoded document or weave operand is not a mapping
	ErrNotMapping = errors.New("value is not a mapping")

	// ErrInvalidReloadInterval is returned for a negative reload interval
	ErrInvalidReloadInterval = errors.New("reload interval cannot be negative")

	// ErrParse wraps all decoder failures
	ErrParse = errors.New("failed to parse config file")

	// ErrNilCallback is returned when registering a nil callback
	ErrNilCallback = errors.New("callback function cannot be nil")
)

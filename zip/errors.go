package zip

import "errors"

// Fatal error kinds surfaced by this package. None are recovered
// internally; callers decide what to do with them.
var (
	// ErrFormat is returned for a bad signature, an inconsistent length,
	// or a local/central section name mismatch.
	ErrFormat = errors.New("zip: format error")

	// ErrTruncated is returned when the input ends before a record
	// completes.
	ErrTruncated = errors.New("zip: truncated input")

	// ErrFinalized is returned by mutating operations on an Archive
	// that has already been finalized.
	ErrFinalized = errors.New("zip: archive already finalized")
)

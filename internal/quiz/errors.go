package quiz

import "errors"

var (
	// ErrNotFound covers lectures, questions and allocations the caller asked
	// for that do not exist (or are not visible to them).
	ErrNotFound = errors.New("not found")

	// ErrOwnership marks a write on behalf of a different student. Surfaced
	// to the caller as forbidden, never silently dropped.
	ErrOwnership = errors.New("record belongs to a different student")

	// ErrConfig marks an impossible engine configuration, e.g. reallocation
	// requested without a target difficulty.
	ErrConfig = errors.New("invalid configuration")
)

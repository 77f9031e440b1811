package core

import "errors"

// Outcomes reported by engine operations. None of them is fatal: callers
// treat them as a status of the attempted command.
var (
	// ErrNotFound is returned when a spatial query has no candidate track or point.
	ErrNotFound = errors.New("no candidate track or point")

	// ErrInvalidState is returned when a command is not valid in the current state.
	ErrInvalidState = errors.New("invalid state for command")

	// ErrEmptyInterval is returned by play when the synchronized interval is empty.
	ErrEmptyInterval = errors.New("synchronized interval is empty")

	// ErrInvalidSpeed is returned for non-positive playback speed multipliers.
	ErrInvalidSpeed = errors.New("playback speed must be positive")

	// ErrOutOfRange is returned for track indices that do not exist.
	ErrOutOfRange = errors.New("track index out of range")

	// ErrMisaligned is returned for tracks whose coordinates and timestamps differ in length.
	ErrMisaligned = errors.New("coordinates and timestamps are not aligned")
)

package solver

import "errors"

var (
	// ErrNoTreats is returned when there are no treats to hand out.
	ErrNoTreats = errors.New("at least one treat is required")
	// ErrInvalidTreatSize is returned when a treat size is zero or negative.
	ErrInvalidTreatSize = errors.New("treat sizes must be positive integers")
	// ErrTooManyTreats is returned when the input exceeds the configured treat limit.
	ErrTooManyTreats = errors.New("too many treats to search in reasonable time")
	// ErrSearchAborted is returned when the context ends before the search completes.
	ErrSearchAborted = errors.New("search aborted")
)

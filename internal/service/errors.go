package service

import "errors"

// Error taxonomy of the scheduling subsystem. Handlers map these to HTTP
// statuses; everything else surfaces as a 500.
var (
	// ErrValidation covers constraint violations at submission or
	// pre-execution time. No record is created when submission fails with it.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a reschedule or reprocess races a state
	// transition and loses the compare-and-set.
	ErrConflict = errors.New("post is not in the required state")

	ErrNotFound = errors.New("not found")
)

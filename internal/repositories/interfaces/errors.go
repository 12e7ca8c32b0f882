package interfaces

import "errors"

// Record store failures that carry dispatch meaning. Any other error from a
// repository is a driver or transport failure.
var (
	ErrNotFound = errors.New("record not found")
	// ErrPreconditionFailed is returned by conditional updates whose
	// expected state no longer matches the stored record.
	ErrPreconditionFailed = errors.New("record precondition failed")
	// ErrDuplicate is returned when a create would break a uniqueness rule,
	// such as a second active assignment for one accident.
	ErrDuplicate = errors.New("duplicate record")
)

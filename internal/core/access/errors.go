package access

import "errors"

var (
	// ErrCorrupted indicates an AccessState invariant was found broken, e.g. a
	// release without a matching acquisition. The accessor is poisoned afterwards.
	ErrCorrupted = errors.New("access: state corrupted")
	// ErrPoisoned is raised by every operation on an accessor that was previously corrupted.
	ErrPoisoned = errors.New("access: accessor poisoned")
)

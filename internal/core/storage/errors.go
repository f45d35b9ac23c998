package storage

import "errors"

var (
	// ErrOutOfRange indicates an entity id at or beyond the storage capacity.
	ErrOutOfRange = errors.New("storage: entity id out of range")
	// ErrReleased indicates use of a guard after Release.
	ErrReleased = errors.New("storage: guard already released")
)

package warehouse

import "errors"

var (
	// ErrAlreadyRegistered indicates a second Register for the same component type.
	ErrAlreadyRegistered = errors.New("warehouse: component already registered")
	// ErrNotRegistered signals a checkout of a component type that was never registered.
	ErrNotRegistered = errors.New("warehouse: component not registered")
	// ErrTypeMismatch means a registered handle is not the storage of its key type.
	// It is an internal consistency fault.
	ErrTypeMismatch = errors.New("warehouse: storage handle type mismatch")
	// ErrDuplicateRequest indicates the same component type requested twice in one CheckoutMany,
	// which would deadlock on itself.
	ErrDuplicateRequest = errors.New("warehouse: component requested twice")
	// ErrNotRequested signals a lookup in Guards for a type or mode that was not checked out.
	ErrNotRequested = errors.New("warehouse: component not part of checkout")
	// ErrUnknownGrowth is returned when parsing an unsupported growth mode.
	ErrUnknownGrowth = errors.New("warehouse: unknown growth mode")
)

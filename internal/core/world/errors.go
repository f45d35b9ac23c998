package world

import "errors"

var (
	ErrNotAlive      = errors.New("world: entity is not alive")
	ErrInvalidConfig = errors.New("world: invalid config")
)

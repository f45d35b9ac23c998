// Package injector wires a World together from its config.
package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/warehouse/internal/core/observability/log"
	"github.com/zeusync/warehouse/internal/core/world"
)

var WorldSet = wire.NewSet(
	ProvideLogger,
	world.New,
)

// ProvideLogger builds the process logger at the configured level.
func ProvideLogger(config world.Config) log.Log {
	return log.New(config.Level())
}

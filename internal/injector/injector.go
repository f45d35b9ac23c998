//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/warehouse/internal/core/world"
)

func InitializeWorld(config world.Config) (*world.World, error) {
	wire.Build(WorldSet)
	return nil, nil
}

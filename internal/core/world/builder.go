package world

import "github.com/zeusync/warehouse/internal/core/entity"

// EntityBuilder attaches components to a newly created entity.
//
//	id := world.With(world.With(w.Build(), Position{}), Velocity{DX: 1}).Entity()
type EntityBuilder struct {
	world *World
	id    entity.ID
}

// Build creates an entity and returns a builder for it.
func (w *World) Build() *EntityBuilder {
	return &EntityBuilder{world: w, id: w.CreateEntity()}
}

// With stores v for the builder's entity, registering T on first use.
func With[T any](b *EntityBuilder, v T) *EntityBuilder {
	AddComponent(b.world, b.id, v)
	return b
}

func (b *EntityBuilder) Entity() entity.ID {
	return b.id
}

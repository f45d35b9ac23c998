// Package world ties entity allocation to the component warehouse.
//
// A World hands out entity ids, keeps every storage large enough for them and
// clears the slots of removed entities before their ids are reused.
package world

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/warehouse/internal/core/entity"
	"github.com/zeusync/warehouse/internal/core/observability/log"
	"github.com/zeusync/warehouse/internal/core/storage"
	"github.com/zeusync/warehouse/internal/core/warehouse"
)

// World owns the entity allocator and the component warehouse.
type World struct {
	id        uuid.UUID
	config    Config
	entities  *entity.Allocator
	warehouse *warehouse.Warehouse
	logger    log.Log
}

func New(config Config, logger log.Log) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	logger = logger.With(log.String("world", id.String()))

	w := &World{
		id:       id,
		config:   config,
		entities: entity.NewAllocator(),
		warehouse: warehouse.New(
			warehouse.WithLogger(logger),
			warehouse.WithGrowth(config.Growth),
			warehouse.WithReserve(config.InitialCapacity),
		),
		logger: logger,
	}

	logger.Info("world created",
		log.Stringer("growth", config.Growth),
		log.Int("initial_capacity", config.InitialCapacity),
	)
	return w, nil
}

func (w *World) ID() uuid.UUID                   { return w.id }
func (w *World) Config() Config                  { return w.config }
func (w *World) Warehouse() *warehouse.Warehouse { return w.warehouse }
func (w *World) Logger() log.Log                 { return w.logger }

// CreateEntity allocates an id. A fresh id grows every storage by one slot.
//
// With eager growth this takes exclusive access to every storage, so calling
// it while holding any guard blocks forever. With lazy growth it never blocks,
// but a later shared checkout of a storage the caller still holds does.
func (w *World) CreateEntity() entity.ID {
	id, fresh := w.entities.Allocate()
	if fresh {
		w.warehouse.GrowTo(uint64(id) + 1)
	}
	return id
}

// RemoveEntity marks id as dead. Its slots keep their values until the next
// Maintain, and the id is not handed out again before that.
func (w *World) RemoveEntity(id entity.ID) bool {
	if !w.entities.Recycle(id) {
		return false
	}
	w.logger.Debug("entity removed", log.Stringer("entity", id))
	return true
}

// Alive reports whether id is allocated and not removed.
func (w *World) Alive(id entity.ID) bool {
	return w.entities.Alive(id)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.Len()
}

// Maintain clears the slots of removed entities in every storage and makes
// their ids reusable. It returns the number of reclaimed ids.
func (w *World) Maintain() int {
	dead := w.entities.Pending()
	if len(dead) == 0 {
		return 0
	}

	cleared := w.warehouse.Clear(dead...)
	reclaimed := w.entities.Reclaim(dead...)

	w.logger.Debug("world maintained",
		log.Int("reclaimed", reclaimed),
		log.Int("cleared_slots", cleared),
	)
	return reclaimed
}

// Stats returns per-storage statistics in registration order.
func (w *World) Stats() []storage.Stats {
	return w.warehouse.Stats()
}

// Register creates the storage for T. It panics if T is already registered.
func Register[T any](w *World) {
	warehouse.Register[T](w.warehouse)
}

// AddComponent stores v for id, registering T on first use, and returns the
// value it replaced. It panics with ErrNotAlive if id is not a live entity.
//
// Liveness is checked again under exclusive access, so a removal that lands
// while the call waits for the storage leaves nothing behind for Maintain to
// miss. Removing an entity, maintaining and creating a new one that reuses the
// id while an AddComponent for the old entity is still waiting is a caller
// race: the value lands on the new occupant.
func AddComponent[T any](w *World, id entity.ID, v T) (T, bool) {
	if !w.entities.Alive(id) {
		w.fail(fmt.Errorf("%w: %s", ErrNotAlive, id))
	}
	warehouse.Ensure[T](w.warehouse)

	g := warehouse.CheckoutWrite[T](w.warehouse)
	if !w.entities.Alive(id) {
		g.Release()
		w.fail(fmt.Errorf("%w: %s removed while waiting for %s", ErrNotAlive, id, g.Storage().Name()))
	}
	defer g.Release()
	return g.Insert(id, v)
}

// RemoveComponent drops the value of T stored for id and returns it.
func RemoveComponent[T any](w *World, id entity.ID) (T, bool) {
	if !warehouse.Registered[T](w.warehouse) {
		var zero T
		return zero, false
	}

	g := warehouse.CheckoutWrite[T](w.warehouse)
	defer g.Release()
	return g.Remove(id)
}

// Component returns the value of T stored for id. It takes a shared guard on
// T for the duration of the call; see warehouse.CheckoutRead for why that
// blocks when the caller already holds a guard on T and entities were created
// since.
func Component[T any](w *World, id entity.ID) (T, bool) {
	if !warehouse.Registered[T](w.warehouse) {
		var zero T
		return zero, false
	}

	g := warehouse.CheckoutRead[T](w.warehouse)
	defer g.Release()
	return g.Get(id)
}

func (w *World) fail(err error) {
	w.logger.Error("world usage error", log.Error(err))
	panic(err)
}

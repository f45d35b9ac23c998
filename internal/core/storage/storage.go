// Package storage holds the per-type component storages and the guards
// through which their slots are read and written.
//
// A Storage owns an access.Accessor and a slot slice indexed by entity id.
// The slice is ordinary Go memory with no synchronization of its own: it may
// only be touched while a guard obtained from the same storage is live.
// Reading slots without a SharedGuard or ExclusiveGuard, or writing them
// without an ExclusiveGuard, is a data race and a precondition violation.
package storage

import (
	"reflect"
	"sync/atomic"

	"github.com/zeusync/warehouse/internal/core/access"
	"github.com/zeusync/warehouse/internal/core/entity"
)

// Slot is one entity's cell in a storage.
type Slot[T any] struct {
	Value    T
	Occupied bool
}

// Erased is the type-erased view of a Storage[T] kept by the registry.
type Erased interface {
	Type() reflect.Type
	Name() string
	ComponentID() ComponentID
	Accessor() *access.Accessor

	// Capacity is the current slot count. It only grows.
	Capacity() uint64

	// Acquire blocks for access of the given mode after growing the storage to
	// at least target slots, and returns the guard.
	Acquire(mode access.Mode, target uint64) Guard
	// Grow takes exclusive access and extends the storage to at least target slots.
	Grow(target uint64)
	// Clear takes exclusive access and empties the slots of ids. Ids beyond the
	// capacity are skipped. It returns how many slots held a value.
	Clear(ids ...entity.ID) int

	Stats() Stats
}

var _ Erased = (*Storage[struct{}])(nil)

// Storage holds one slot of T per entity id behind an Accessor. Slots are only
// reachable through the guards returned by Read, Write and Acquire.
type Storage[T any] struct {
	accessor *access.Accessor
	typ      reflect.Type
	name     string
	id       ComponentID

	capacity atomic.Uint64
	slots    []Slot[T]
}

// New creates a storage with capacity empty slots. reserve preallocates room
// for that many slots without making them addressable.
func New[T any](capacity uint64, reserve int) *Storage[T] {
	typ := reflect.TypeFor[T]()
	s := &Storage[T]{
		accessor: access.New(),
		typ:      typ,
		name:     TypeName(typ),
		id:       ComponentIDOf(typ),
		slots:    make([]Slot[T], capacity, max(int(capacity), reserve)),
	}
	s.capacity.Store(capacity)
	return s
}

func (s *Storage[T]) Type() reflect.Type         { return s.typ }
func (s *Storage[T]) Name() string               { return s.name }
func (s *Storage[T]) ComponentID() ComponentID   { return s.id }
func (s *Storage[T]) Accessor() *access.Accessor { return s.accessor }
func (s *Storage[T]) Capacity() uint64           { return s.capacity.Load() }

// Read blocks until shared access is granted. If the storage holds fewer than
// target slots it first catches up under exclusive access, which blocks while
// the caller itself holds a guard on s.
func (s *Storage[T]) Read(target uint64) *SharedGuard[T] {
	if s.capacity.Load() < target {
		s.accessor.AcquireWrite()
		s.growLocked(target)
		s.accessor.ReleaseWrite()
	}
	s.accessor.AcquireRead()
	return &SharedGuard[T]{view: view[T]{storage: s}}
}

// Write blocks until exclusive access is granted and grows the storage to at
// least target slots before returning.
func (s *Storage[T]) Write(target uint64) *ExclusiveGuard[T] {
	s.accessor.AcquireWrite()
	s.growLocked(target)
	return &ExclusiveGuard[T]{view: view[T]{storage: s}}
}

func (s *Storage[T]) Acquire(mode access.Mode, target uint64) Guard {
	if mode == access.Exclusive {
		return s.Write(target)
	}
	return s.Read(target)
}

func (s *Storage[T]) Grow(target uint64) {
	if s.capacity.Load() >= target {
		return
	}
	s.Write(target).Release()
}

func (s *Storage[T]) Clear(ids ...entity.ID) int {
	g := s.Write(0)
	defer g.Release()

	cleared := 0
	for _, id := range ids {
		if uint64(id) >= uint64(len(s.slots)) {
			continue
		}
		if _, ok := g.Remove(id); ok {
			cleared++
		}
	}
	return cleared
}

// growLocked requires exclusive access.
func (s *Storage[T]) growLocked(target uint64) {
	current := uint64(len(s.slots))
	if current >= target {
		return
	}
	s.slots = append(s.slots, make([]Slot[T], target-current)...)
	s.capacity.Store(target)
}

// Stats describes a storage.
type Stats struct {
	Name        string
	ComponentID ComponentID
	Capacity    uint64
	Occupied    int
	Access      access.Metrics
}

// Stats briefly takes shared access to count occupied slots.
func (s *Storage[T]) Stats() Stats {
	g := s.Read(0)
	occupied := g.Count()
	capacity := uint64(g.Len())
	g.Release()

	return Stats{
		Name:        s.name,
		ComponentID: s.id,
		Capacity:    capacity,
		Occupied:    occupied,
		Access:      s.accessor.Metrics(),
	}
}

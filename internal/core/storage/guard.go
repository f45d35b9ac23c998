package storage

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/zeusync/warehouse/internal/core/access"
	"github.com/zeusync/warehouse/internal/core/entity"
)

// Guard is held access to one storage. Release must be called exactly once,
// normally with defer right after the checkout; further calls are no-ops.
// Guards must not be copied.
type Guard interface {
	Mode() access.Mode
	Storage() Erased
	Release()
}

var (
	_ Guard = (*SharedGuard[struct{}])(nil)
	_ Guard = (*ExclusiveGuard[struct{}])(nil)
)

// view implements the read side shared by both guard kinds.
type view[T any] struct {
	storage  *Storage[T]
	released atomic.Bool
}

func (v *view[T]) Storage() Erased {
	return v.storage
}

func (v *view[T]) live() []Slot[T] {
	if v.released.Load() {
		panic(fmt.Errorf("%w: %s", ErrReleased, v.storage.name))
	}
	return v.storage.slots
}

func (v *view[T]) slot(id entity.ID) *Slot[T] {
	slots := v.live()
	if uint64(id) >= uint64(len(slots)) {
		panic(fmt.Errorf("%w: %s beyond capacity %d of %s", ErrOutOfRange, id, len(slots), v.storage.name))
	}
	return &slots[id]
}

// Get returns the value stored for id. It panics if id is beyond the capacity.
func (v *view[T]) Get(id entity.ID) (T, bool) {
	s := v.slot(id)
	return s.Value, s.Occupied
}

func (v *view[T]) Has(id entity.ID) bool {
	return v.slot(id).Occupied
}

// Len returns the number of addressable slots.
func (v *view[T]) Len() int {
	return len(v.live())
}

// Count returns the number of occupied slots.
func (v *view[T]) Count() int {
	n := 0
	for _, s := range v.live() {
		if s.Occupied {
			n++
		}
	}
	return n
}

// Iter yields every slot, empty ones included, in id order. The sequence can
// be ranged over any number of times while the guard is held.
func (v *view[T]) Iter() iter.Seq2[entity.ID, Slot[T]] {
	return func(yield func(entity.ID, Slot[T]) bool) {
		for i, s := range v.live() {
			if !yield(entity.ID(i), s) {
				return
			}
		}
	}
}

// Values yields only the occupied slots, in id order.
func (v *view[T]) Values() iter.Seq2[entity.ID, T] {
	return func(yield func(entity.ID, T) bool) {
		for i, s := range v.live() {
			if s.Occupied && !yield(entity.ID(i), s.Value) {
				return
			}
		}
	}
}

// SharedGuard grants read access. Values reached through it must not be modified.
type SharedGuard[T any] struct {
	view[T]
}

func (g *SharedGuard[T]) Mode() access.Mode {
	return access.Shared
}

func (g *SharedGuard[T]) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.storage.accessor.ReleaseRead()
	}
}

// ExclusiveGuard grants read and write access.
type ExclusiveGuard[T any] struct {
	view[T]
}

func (g *ExclusiveGuard[T]) Mode() access.Mode {
	return access.Exclusive
}

func (g *ExclusiveGuard[T]) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.storage.accessor.ReleaseWrite()
	}
}

// GetMut returns a pointer to the value stored for id, or nil for an empty
// slot. The pointer is only valid until the guard is released.
func (g *ExclusiveGuard[T]) GetMut(id entity.ID) *T {
	s := g.slot(id)
	if !s.Occupied {
		return nil
	}
	return &s.Value
}

// Insert stores value for id and returns the value it replaced, if any.
func (g *ExclusiveGuard[T]) Insert(id entity.ID, value T) (T, bool) {
	s := g.slot(id)
	prev, had := s.Value, s.Occupied
	s.Value, s.Occupied = value, true
	return prev, had
}

// Remove empties the slot of id and returns the value it held, if any.
func (g *ExclusiveGuard[T]) Remove(id entity.ID) (T, bool) {
	s := g.slot(id)
	prev, had := s.Value, s.Occupied
	*s = Slot[T]{}
	return prev, had
}

// IterMut yields a pointer to every slot, empty ones included, in id order.
func (g *ExclusiveGuard[T]) IterMut() iter.Seq2[entity.ID, *Slot[T]] {
	return func(yield func(entity.ID, *Slot[T]) bool) {
		slots := g.live()
		for i := range slots {
			if !yield(entity.ID(i), &slots[i]) {
				return
			}
		}
	}
}

// Reset empties every slot without changing the capacity.
func (g *ExclusiveGuard[T]) Reset() {
	clear(g.live())
}

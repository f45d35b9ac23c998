// Package entity allocates and recycles entity identifiers.
//
// Removed ids are not reusable straight away. Recycle parks an id as pending
// until every storage has dropped the slot data of its old occupant; only
// Reclaim makes it available to Allocate again.
package entity

import (
	"fmt"
	"slices"
	"sync"
)

// ID indexes a slot in every storage.
type ID uint64

func (id ID) String() string {
	return fmt.Sprintf("entity(%d)", uint64(id))
}

// Allocator hands out entity ids and tracks which ones are alive. It is safe
// for concurrent use.
type Allocator struct {
	mu      sync.Mutex
	next    ID
	alive   []bool
	live    int
	pending []ID
	free    []ID
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate returns a reclaimed id when one is available, otherwise a fresh one.
// fresh reports whether the id extends the id space, i.e. storages need a new slot.
func (a *Allocator) Allocate() (id ID, fresh bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		id = a.next
		a.next++
		a.alive = append(a.alive, false)
		fresh = true
	}

	a.alive[id] = true
	a.live++
	return id, fresh
}

// Recycle marks a live id as dead. It returns false for ids that are not alive.
func (a *Allocator) Recycle(id ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id >= a.next || !a.alive[id] {
		return false
	}
	a.alive[id] = false
	a.live--
	a.pending = append(a.pending, id)
	return true
}

// Pending returns the dead ids that still wait for their slots to be cleared.
func (a *Allocator) Pending() []ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.pending)
}

// Reclaim makes pending ids reusable. Ids that are not pending are ignored.
// It returns how many ids were reclaimed.
func (a *Allocator) Reclaim(ids ...ID) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	reclaimed := 0
	for _, id := range ids {
		idx := slices.Index(a.pending, id)
		if idx < 0 {
			continue
		}
		a.pending = slices.Delete(a.pending, idx, idx+1)
		a.free = append(a.free, id)
		reclaimed++
	}
	return reclaimed
}

// Alive reports whether id is currently allocated.
func (a *Allocator) Alive(id ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return id < a.next && a.alive[id]
}

// Len returns the number of live entities.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// Capacity returns the size of the id space handed out so far.
func (a *Allocator) Capacity() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint64(a.next)
}

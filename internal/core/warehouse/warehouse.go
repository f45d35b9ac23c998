// Package warehouse is the registry of component storages.
//
// The registry map is guarded by a mutex held only long enough to look up a
// storage handle. Blocking for access happens on the storage's own accessor
// after the map lock is released, so unrelated storages never wait on each
// other.
//
// Usage errors are fatal: they are logged and raised as panics wrapping one of
// the package sentinels, so a recovering caller can still match them with
// errors.Is.
//
// Storages grow lazily by default. GrowAll only raises the registry capacity;
// each storage catches up under exclusive access on its next checkout. With
// GrowthEager, GrowAll grows every storage before returning.
//
// Growth needs exclusive access, which makes two more re-entrant requests
// block on the caller's own guards. A shared checkout of a storage the caller
// already holds blocks while growth is pending for it, i.e. after a GrowAll or
// GrowTo from any goroutine since the held guard was taken. With GrowthEager,
// GrowAll and GrowTo block while the caller holds any guard at all. Release
// guards before checking out the same storage again or growing the registry.
package warehouse

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/warehouse/internal/core/entity"
	"github.com/zeusync/warehouse/internal/core/observability/log"
	"github.com/zeusync/warehouse/internal/core/storage"
)

// Warehouse maps component types to their storages. Storages are created by
// Register and never removed; all of them share the registry capacity.
type Warehouse struct {
	mu       sync.Mutex
	storages map[reflect.Type]storage.Erased
	order    []reflect.Type

	capacity atomic.Uint64
	reserve  int
	growth   Growth

	logger log.Log
}

func New(opts ...Option) *Warehouse {
	o := options{logger: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	w := &Warehouse{
		storages: make(map[reflect.Type]storage.Erased),
		reserve:  o.reserve,
		growth:   o.growth,
		logger:   o.logger,
	}
	w.capacity.Store(o.capacity)
	return w
}

// Register creates the storage for T with one empty slot per allocated entity.
// It panics with ErrAlreadyRegistered if T already has a storage.
func Register[T any](w *Warehouse) {
	if !register[T](w) {
		w.fail(fmt.Errorf("%w: %s", ErrAlreadyRegistered, storage.TypeName(reflect.TypeFor[T]())))
	}
}

// Ensure registers T unless it is registered already. It reports whether a
// storage was created.
func Ensure[T any](w *Warehouse) bool {
	return register[T](w)
}

func register[T any](w *Warehouse) bool {
	typ := reflect.TypeFor[T]()

	w.mu.Lock()
	if _, exists := w.storages[typ]; exists {
		w.mu.Unlock()
		return false
	}
	s := storage.New[T](w.capacity.Load(), w.reserve)
	w.storages[typ] = s
	w.order = append(w.order, typ)
	w.mu.Unlock()

	w.logger.Info("storage registered",
		log.String("component", s.Name()),
		log.Stringer("component_id", s.ComponentID()),
		log.Uint64("capacity", s.Capacity()),
	)
	return true
}

// Registered reports whether T has a storage.
func Registered[T any](w *Warehouse) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.storages[reflect.TypeFor[T]()]
	return ok
}

// CheckoutRead blocks until shared access to the storage of T is granted.
// It panics with ErrNotRegistered if T was never registered.
//
// Shared guards on one storage coexist, but a pending growth is applied under
// exclusive access first: if the registry grew since the caller took its own
// guard on T, this call blocks until that guard is released.
func CheckoutRead[T any](w *Warehouse) *storage.SharedGuard[T] {
	return lookup[T](w).Read(w.capacity.Load())
}

// CheckoutWrite blocks until exclusive access to the storage of T is granted.
// It panics with ErrNotRegistered if T was never registered.
//
// Calling it while the same goroutine holds any guard on T's storage deadlocks.
func CheckoutWrite[T any](w *Warehouse) *storage.ExclusiveGuard[T] {
	return lookup[T](w).Write(w.capacity.Load())
}

func lookup[T any](w *Warehouse) *storage.Storage[T] {
	typ := reflect.TypeFor[T]()

	w.mu.Lock()
	handle, ok := w.storages[typ]
	w.mu.Unlock()

	if !ok {
		w.fail(fmt.Errorf("%w: %s", ErrNotRegistered, storage.TypeName(typ)))
	}
	s, ok := handle.(*storage.Storage[T])
	if !ok {
		w.fail(fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, storage.TypeName(typ), handle))
	}
	return s
}

// GrowAll adds n slots to the registry capacity and returns the new capacity.
// With GrowthEager it blocks until every storage is grown, so it must not be
// called while holding a guard.
func (w *Warehouse) GrowAll(n uint64) uint64 {
	if n == 0 {
		return w.capacity.Load()
	}
	target := w.capacity.Add(n)
	w.grown(target)
	return target
}

// GrowTo raises the registry capacity to at least target and returns the
// resulting capacity. The capacity never shrinks.
func (w *Warehouse) GrowTo(target uint64) uint64 {
	for {
		current := w.capacity.Load()
		if target <= current {
			return current
		}
		if w.capacity.CompareAndSwap(current, target) {
			w.grown(target)
			return target
		}
	}
}

func (w *Warehouse) grown(target uint64) {
	if w.growth != GrowthEager {
		return
	}
	handles := w.handles()
	w.each(handles, func(s storage.Erased) { s.Grow(target) })
	w.logger.Debug("storages grown",
		log.Uint64("capacity", target),
		log.Int("storages", len(handles)),
	)
}

// Capacity returns the number of slots every storage exposes at checkout.
func (w *Warehouse) Capacity() uint64 {
	return w.capacity.Load()
}

// Clear empties the slots of ids in every storage and returns how many values were dropped.
// Storages are cleared concurrently, each under its own exclusive access.
func (w *Warehouse) Clear(ids ...entity.ID) int {
	if len(ids) == 0 {
		return 0
	}

	var cleared atomic.Int64
	w.each(w.handles(), func(s storage.Erased) {
		cleared.Add(int64(s.Clear(ids...)))
	})
	return int(cleared.Load())
}

// Len returns the number of registered storages.
func (w *Warehouse) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.storages)
}

// Types returns the registered component types in registration order.
func (w *Warehouse) Types() []reflect.Type {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]reflect.Type(nil), w.order...)
}

// Stats returns per-storage statistics in registration order. Each storage is
// briefly taken for shared access, one at a time.
func (w *Warehouse) Stats() []storage.Stats {
	handles := w.handles()
	stats := make([]storage.Stats, 0, len(handles))
	for _, s := range handles {
		stats = append(stats, s.Stats())
	}
	return stats
}

func (w *Warehouse) handles() []storage.Erased {
	w.mu.Lock()
	defer w.mu.Unlock()

	handles := make([]storage.Erased, 0, len(w.order))
	for _, typ := range w.order {
		handles = append(handles, w.storages[typ])
	}
	return handles
}

// each runs fn for every handle concurrently. A panic in fn, e.g. on a
// poisoned storage, is carried back and raised on the calling goroutine once
// all workers are done.
func (w *Warehouse) each(handles []storage.Erased, fn func(storage.Erased)) {
	var g errgroup.Group
	for _, s := range handles {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					if e, ok := r.(error); ok {
						err = fmt.Errorf("%s: %w", s.Name(), e)
					} else {
						err = fmt.Errorf("%s: %v", s.Name(), r)
					}
				}
			}()
			fn(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.fail(err)
	}
}

func (w *Warehouse) fail(err error) {
	w.logger.Error("warehouse usage error", log.Error(err))
	panic(err)
}

package warehouse

import (
	"fmt"
	"reflect"

	"github.com/zeusync/warehouse/internal/core/access"
	"github.com/zeusync/warehouse/internal/core/storage"
)

// Request names one storage and the access wanted on it in CheckoutMany.
type Request struct {
	Type reflect.Type
	Mode access.Mode
}

func (r Request) String() string {
	return fmt.Sprintf("%s(%s)", r.Mode, storage.TypeName(r.Type))
}

func Read[T any]() Request {
	return Request{Type: reflect.TypeFor[T](), Mode: access.Shared}
}

func Write[T any]() Request {
	return Request{Type: reflect.TypeFor[T](), Mode: access.Exclusive}
}

// Guards are the guards of one CheckoutMany, in request order.
type Guards []storage.Guard

// Release releases every guard in reverse acquisition order.
func (gs Guards) Release() {
	for i := len(gs) - 1; i >= 0; i-- {
		gs[i].Release()
	}
}

// CheckoutMany resolves every requested storage under a single registry lock,
// releases the lock, then acquires the storages one after another in the
// given order.
//
// Two callers that check out overlapping storages in different orders can
// deadlock each other. Every caller must request storages in the same global
// order; sorting requests by type name is a simple way to get one.
//
// Like CheckoutRead, a shared request blocks on a storage the caller already
// holds a guard on when growth is pending for it.
//
// It panics with ErrNotRegistered for an unregistered type and with
// ErrDuplicateRequest when a type appears twice. If an acquisition panics, the
// guards taken before it are released.
func (w *Warehouse) CheckoutMany(reqs ...Request) Guards {
	seen := make(map[reflect.Type]struct{}, len(reqs))
	for _, r := range reqs {
		if _, dup := seen[r.Type]; dup {
			w.fail(fmt.Errorf("%w: %s", ErrDuplicateRequest, r))
		}
		seen[r.Type] = struct{}{}
	}

	handles := make([]storage.Erased, len(reqs))
	w.mu.Lock()
	for i, r := range reqs {
		h, ok := w.storages[r.Type]
		if !ok {
			w.mu.Unlock()
			w.fail(fmt.Errorf("%w: %s", ErrNotRegistered, storage.TypeName(r.Type)))
		}
		handles[i] = h
	}
	w.mu.Unlock()

	target := w.capacity.Load()
	guards := make(Guards, 0, len(reqs))
	defer func() {
		if len(guards) < len(reqs) {
			guards.Release()
		}
	}()
	for i, r := range reqs {
		guards = append(guards, handles[i].Acquire(r.Mode, target))
	}
	return guards
}

// SharedOf returns the shared guard for T from gs.
// It panics with ErrNotRequested if gs holds no shared guard for T.
func SharedOf[T any](gs Guards) *storage.SharedGuard[T] {
	for _, g := range gs {
		if sg, ok := g.(*storage.SharedGuard[T]); ok {
			return sg
		}
	}
	panic(fmt.Errorf("%w: %s", ErrNotRequested, Read[T]()))
}

// ExclusiveOf returns the exclusive guard for T from gs.
// It panics with ErrNotRequested if gs holds no exclusive guard for T.
func ExclusiveOf[T any](gs Guards) *storage.ExclusiveGuard[T] {
	for _, g := range gs {
		if eg, ok := g.(*storage.ExclusiveGuard[T]); ok {
			return eg
		}
	}
	panic(fmt.Errorf("%w: %s", ErrNotRequested, Write[T]()))
}

// Package access implements the per-storage access-control primitive: a
// mutex-protected State plus two condition variables, one for readers and
// one for writers, released with a writer-priority policy.
//
// Releasing shared access wakes exactly one blocked writer when any writer is
// queued, otherwise all blocked readers. Releasing exclusive access does the
// same. Readers that were already woken may still race a freshly signalled
// writer, so several writes can happen back to back without an intervening
// read and a reader is not guaranteed to observe every write.
//
// An Accessor is not reentrant. Asking for exclusive access while the same
// goroutine still holds shared or exclusive access deadlocks: the request
// waits for a writer-allowed transition that only the caller's own release
// could produce.
package access

import (
	"fmt"
	"sync"
	"time"
)

// Accessor grants shared or exclusive access to one storage. The zero value
// is not usable; create accessors with New.
type Accessor struct {
	mu         sync.Mutex
	readerCond sync.Cond
	writerCond sync.Cond

	state    State
	poisoned bool

	metrics counters
}

// New returns an accessor in the open state.
func New() *Accessor {
	a := &Accessor{state: openState()}
	a.readerCond.L = &a.mu
	a.writerCond.L = &a.mu
	return a
}

// AcquireRead blocks until reads are allowed and registers the caller as an active reader.
func (a *Accessor) AcquireRead() {
	a.lock()

	var start time.Time
	for !a.state.ReadAllowed {
		if start.IsZero() {
			start = time.Now()
		}
		a.readerCond.Wait()
		a.failIfPoisonedLocked()
	}

	a.state.WriteAllowed = false
	a.state.Readers++
	a.mu.Unlock()

	a.metrics.observe(Shared, start)
}

// AcquireWrite blocks until writes are allowed and takes exclusive access.
// While blocked the caller is counted in State.WritersWaiting.
func (a *Accessor) AcquireWrite() {
	a.lock()

	a.state.WritersWaiting++
	var start time.Time
	for !a.state.WriteAllowed {
		if start.IsZero() {
			start = time.Now()
		}
		a.writerCond.Wait()
		a.failIfPoisonedLocked()
	}

	a.state.ReadAllowed = false
	a.state.WriteAllowed = false
	a.state.WritersWaiting--
	a.mu.Unlock()

	a.metrics.observe(Exclusive, start)
}

// ReleaseRead gives back one shared access. It must be paired with exactly one AcquireRead.
func (a *Accessor) ReleaseRead() {
	a.lock()

	if a.state.Readers == 0 || !a.state.ReadAllowed {
		a.corruptLocked(fmt.Errorf("%w: shared release without shared access (%s)", ErrCorrupted, a.state))
	}

	a.state.Readers--
	if a.state.Readers == 0 {
		// ReadAllowed stays true: readers that were woken but not yet scheduled
		// may still race for access, and closing reads here would leave the
		// accessor locked out with nobody holding it.
		a.state.WriteAllowed = true
	}

	a.wakeLocked()
	a.mu.Unlock()
}

// ReleaseWrite gives back exclusive access. It must be paired with exactly one AcquireWrite.
func (a *Accessor) ReleaseWrite() {
	a.lock()

	if !a.state.Writing() {
		a.corruptLocked(fmt.Errorf("%w: exclusive release without exclusive access (%s)", ErrCorrupted, a.state))
	}

	a.state.ReadAllowed = true
	a.state.WriteAllowed = true

	a.wakeLocked()
	a.mu.Unlock()
}

// Acquire and Release dispatch on mode.
func (a *Accessor) Acquire(mode Mode) {
	switch mode {
	case Shared:
		a.AcquireRead()
	case Exclusive:
		a.AcquireWrite()
	default:
		panic(fmt.Errorf("access: acquire with unknown %s", mode))
	}
}

func (a *Accessor) Release(mode Mode) {
	switch mode {
	case Shared:
		a.ReleaseRead()
	case Exclusive:
		a.ReleaseWrite()
	default:
		panic(fmt.Errorf("access: release with unknown %s", mode))
	}
}

// State returns a snapshot of the access state.
func (a *Accessor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Poisoned reports whether a corrupted state was detected.
func (a *Accessor) Poisoned() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.poisoned
}

// Metrics returns the accumulated acquisition counters.
func (a *Accessor) Metrics() Metrics {
	return a.metrics.snapshot()
}

// wakeLocked prefers one queued writer over the pool of blocked readers.
func (a *Accessor) wakeLocked() {
	if err := a.state.check(); err != nil {
		a.corruptLocked(err)
	}
	if a.state.WritersWaiting > 0 {
		a.writerCond.Signal()
		return
	}
	a.readerCond.Broadcast()
}

func (a *Accessor) lock() {
	a.mu.Lock()
	a.failIfPoisonedLocked()
}

func (a *Accessor) failIfPoisonedLocked() {
	if a.poisoned {
		a.mu.Unlock()
		panic(fmt.Errorf("%w: %s", ErrPoisoned, a.state))
	}
}

// corruptLocked poisons the accessor, wakes every waiter so that it fails too,
// and panics with err. It never returns.
func (a *Accessor) corruptLocked(err error) {
	a.poisoned = true
	a.readerCond.Broadcast()
	a.writerCond.Broadcast()
	a.mu.Unlock()
	panic(err)
}

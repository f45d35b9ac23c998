package access

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	eventually = 2 * time.Second
	never      = 50 * time.Millisecond
	tick       = time.Millisecond
)

func closed(ch <-chan struct{}) func() bool {
	return func() bool {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
}

func recoverErr(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				e = fmt.Errorf("%v", r)
			}
			err = e
		}
	}()
	f()
	return nil
}

func TestAccessor_InitialState(t *testing.T) {
	a := New()
	s := a.State()
	require.True(t, s.Open())
	require.False(t, s.Writing())
	require.Zero(t, s.WritersWaiting)
	require.False(t, a.Poisoned())
}

func TestAccessor_Transitions(t *testing.T) {
	a := New()

	t.Run("Reading", func(t *testing.T) {
		a.AcquireRead()
		a.AcquireRead()
		s := a.State()
		require.Equal(t, uint32(2), s.Readers)
		require.True(t, s.ReadAllowed)
		require.False(t, s.WriteAllowed)

		a.ReleaseRead()
		require.False(t, a.State().WriteAllowed)
		a.ReleaseRead()
		require.True(t, a.State().Open())
	})

	t.Run("Writing", func(t *testing.T) {
		a.AcquireWrite()
		s := a.State()
		require.True(t, s.Writing())
		require.Zero(t, s.WritersWaiting)

		a.ReleaseWrite()
		require.True(t, a.State().Open())
	})

	t.Run("Dispatch", func(t *testing.T) {
		a.Acquire(Exclusive)
		require.True(t, a.State().Writing())
		a.Release(Exclusive)
		a.Acquire(Shared)
		require.Equal(t, uint32(1), a.State().Readers)
		a.Release(Shared)
		require.True(t, a.State().Open())
	})
}

func TestAccessor_SharedConcurrency(t *testing.T) {
	a := New()
	const readers = 16

	var (
		active  atomic.Int32
		release = make(chan struct{})
		wg      sync.WaitGroup
	)

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.AcquireRead()
			active.Add(1)
			<-release
			a.ReleaseRead()
		}()
	}

	// every reader holds access at the same time
	require.Eventually(t, func() bool { return active.Load() == readers }, eventually, tick)
	require.Equal(t, uint32(readers), a.State().Readers)

	close(release)
	wg.Wait()
	require.True(t, a.State().Open())
	require.Zero(t, a.Metrics().ContendedReads)
}

func TestAccessor_MutualExclusion(t *testing.T) {
	a := New()
	const (
		readers    = 8
		writers    = 4
		iterations = 300
	)

	var (
		activeReaders atomic.Int32
		activeWriters atomic.Int32
		violations    atomic.Int32
		wg            sync.WaitGroup
	)

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				a.AcquireRead()
				activeReaders.Add(1)
				if activeWriters.Load() != 0 {
					violations.Add(1)
				}
				activeReaders.Add(-1)
				a.ReleaseRead()
			}
		}()
	}

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				a.AcquireWrite()
				if activeWriters.Add(1) != 1 || activeReaders.Load() != 0 {
					violations.Add(1)
				}
				activeWriters.Add(-1)
				a.ReleaseWrite()
			}
		}()
	}

	wg.Wait()
	require.Zero(t, violations.Load())
	require.True(t, a.State().Open())

	m := a.Metrics()
	require.Equal(t, uint64(readers*iterations), m.Reads)
	require.Equal(t, uint64(writers*iterations), m.Writes)
}

// A holds shared access, B queues for exclusive access, C asks for shared
// access after B. C is admitted while reads are still open, and B acquires at
// the first point the reader count returns to zero.
func TestAccessor_WriterAcquiresWhenReadersDrain(t *testing.T) {
	a := New()

	a.AcquireRead() // A

	bAcquired := make(chan struct{})
	bRelease := make(chan struct{})
	bDone := make(chan struct{})
	go func() {
		defer close(bDone)
		a.AcquireWrite()
		close(bAcquired)
		<-bRelease
		a.ReleaseWrite()
	}()
	require.Eventually(t, func() bool { return a.State().WritersWaiting == 1 }, eventually, tick)

	a.AcquireRead() // C, admitted because reads stay open while readers are active
	require.Equal(t, uint32(2), a.State().Readers)

	a.ReleaseRead() // A
	require.Never(t, closed(bAcquired), never, tick)

	a.ReleaseRead() // C, reader count hits zero
	require.Eventually(t, closed(bAcquired), eventually, tick)

	dAcquired := make(chan struct{})
	dDone := make(chan struct{})
	go func() {
		defer close(dDone)
		a.AcquireRead()
		close(dAcquired)
		a.ReleaseRead()
	}()
	require.Never(t, closed(dAcquired), never, tick)

	close(bRelease)
	<-bDone
	require.Eventually(t, closed(dAcquired), eventually, tick)
	<-dDone
	require.True(t, a.State().Open())
}

// Releasing exclusive access wakes a queued writer before any blocked reader.
func TestAccessor_WriterReleasePrefersWriter(t *testing.T) {
	a := New()
	a.AcquireWrite() // W1

	rAcquired := make(chan struct{})
	rDone := make(chan struct{})
	go func() {
		defer close(rDone)
		a.AcquireRead()
		close(rAcquired)
		a.ReleaseRead()
	}()
	require.Never(t, closed(rAcquired), never, tick)

	w2Acquired := make(chan struct{})
	w2Release := make(chan struct{})
	w2Done := make(chan struct{})
	go func() {
		defer close(w2Done)
		a.AcquireWrite()
		close(w2Acquired)
		<-w2Release
		a.ReleaseWrite()
	}()
	require.Eventually(t, func() bool { return a.State().WritersWaiting == 1 }, eventually, tick)

	a.ReleaseWrite() // W1
	require.Eventually(t, closed(w2Acquired), eventually, tick)
	require.False(t, closed(rAcquired)())

	close(w2Release)
	<-w2Done
	require.Eventually(t, closed(rAcquired), eventually, tick)
	<-rDone

	m := a.Metrics()
	require.Equal(t, uint64(2), m.Writes)
	require.Equal(t, uint64(1), m.ContendedWrites)
	require.Equal(t, uint64(1), m.ContendedReads)
	require.Positive(t, m.WriteWait)
}

// A goroutine that asks for exclusive access while shared access is still held
// (by itself or anyone else) blocks until that access is released. Doing it
// from the holding goroutine itself never returns.
func TestAccessor_WriteBlocksWhileGuardOutstanding(t *testing.T) {
	a := New()
	a.AcquireRead()

	acquired := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.AcquireWrite()
		close(acquired)
		a.ReleaseWrite()
	}()

	require.Never(t, closed(acquired), never, tick)
	require.Equal(t, uint32(1), a.State().WritersWaiting)

	a.ReleaseRead()
	require.Eventually(t, closed(acquired), eventually, tick)
	<-done
}

func TestAccessor_Corruption(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(a *Accessor)
		misuse  func(a *Accessor)
	}{
		{
			name:    "shared release on open accessor",
			prepare: func(*Accessor) {},
			misuse:  (*Accessor).ReleaseRead,
		},
		{
			name:    "exclusive release on open accessor",
			prepare: func(*Accessor) {},
			misuse:  (*Accessor).ReleaseWrite,
		},
		{
			name:    "exclusive release while reading",
			prepare: (*Accessor).AcquireRead,
			misuse:  (*Accessor).ReleaseWrite,
		},
		{
			name:    "shared release while writing",
			prepare: (*Accessor).AcquireWrite,
			misuse:  (*Accessor).ReleaseRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New()
			tt.prepare(a)

			err := recoverErr(func() { tt.misuse(a) })
			require.True(t, errors.Is(err, ErrCorrupted), "got %v", err)
			require.True(t, a.Poisoned())

			err = recoverErr(a.AcquireRead)
			require.ErrorIs(t, err, ErrPoisoned)
			err = recoverErr(a.AcquireWrite)
			require.ErrorIs(t, err, ErrPoisoned)
		})
	}
}

func TestAccessor_PoisonWakesWaiters(t *testing.T) {
	a := New()
	a.AcquireWrite()

	errs := make(chan error, 1)
	go func() {
		errs <- recoverErr(a.AcquireRead)
	}()
	require.Never(t, func() bool { return len(errs) > 0 }, never, tick)

	// a shared release while writing is a protocol violation
	require.ErrorIs(t, recoverErr(a.ReleaseRead), ErrCorrupted)

	select {
	case err := <-errs:
		require.ErrorIs(t, err, ErrPoisoned)
	case <-time.After(eventually):
		t.Fatal("blocked reader was not woken by poisoning")
	}
}

func TestStateCheck(t *testing.T) {
	require.NoError(t, openState().check())
	require.NoError(t, State{}.check())
	require.NoError(t, State{Readers: 3, ReadAllowed: true}.check())
	require.ErrorIs(t, State{Readers: 1, ReadAllowed: true, WriteAllowed: true}.check(), ErrCorrupted)
	require.ErrorIs(t, State{Readers: 1}.check(), ErrCorrupted)
	require.ErrorIs(t, State{ReadAllowed: true}.check(), ErrCorrupted)
}

func TestModeString(t *testing.T) {
	require.Equal(t, "shared", Shared.String())
	require.Equal(t, "exclusive", Exclusive.String())
	require.Equal(t, "mode(9)", Mode(9).String())
}

func BenchmarkAccessor(b *testing.B) {
	b.Run("Shared", func(b *testing.B) {
		a := New()
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				a.AcquireRead()
				a.ReleaseRead()
			}
		})
	})

	b.Run("Exclusive", func(b *testing.B) {
		a := New()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			a.AcquireWrite()
			a.ReleaseWrite()
		}
	})
}

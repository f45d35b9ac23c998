package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_Allocate(t *testing.T) {
	a := NewAllocator()

	for want := ID(0); want < 3; want++ {
		id, fresh := a.Allocate()
		assert.Equal(t, want, id)
		assert.True(t, fresh)
	}

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, uint64(3), a.Capacity())
	assert.True(t, a.Alive(1))
	assert.False(t, a.Alive(3))
}

func TestAllocator_RecycleWaitsForReclaim(t *testing.T) {
	a := NewAllocator()
	e0, _ := a.Allocate()
	e1, _ := a.Allocate()

	require.True(t, a.Recycle(e0))
	require.False(t, a.Recycle(e0), "double recycle")
	require.False(t, a.Recycle(ID(42)), "never allocated")

	assert.False(t, a.Alive(e0))
	assert.Equal(t, []ID{e0}, a.Pending())
	assert.Equal(t, 1, a.Len())

	// e0 still has slot data somewhere, so a fresh id is handed out
	e2, fresh := a.Allocate()
	assert.True(t, fresh)
	assert.Equal(t, ID(2), e2)

	assert.Equal(t, 1, a.Reclaim(e0, e1))
	assert.Empty(t, a.Pending())

	e3, fresh := a.Allocate()
	assert.False(t, fresh)
	assert.Equal(t, e0, e3)
	assert.Equal(t, uint64(3), a.Capacity())
}

func TestAllocator_Concurrent(t *testing.T) {
	a := NewAllocator()
	const workers, each = 8, 100

	var (
		mu   sync.Mutex
		seen = make(map[ID]struct{})
		wg   sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				id, _ := a.Allocate()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*each)
	assert.Equal(t, uint64(workers*each), a.Capacity())
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "entity(7)", ID(7).String())
}

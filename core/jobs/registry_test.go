package jobs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nonZeroSlots(r *Registry) int {
	count := 0
	for _, slot := range r.slots {
		if slot != 0 {
			count++
		}
	}
	return count
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry(2)

	r.Add(100)
	r.Add(200)
	assert.Equal(t, []int{100, 200}, r.Pids())
	assert.Equal(t, 2, r.Cap())

	r.Add(300)
	assert.Equal(t, []int{100, 200, 300}, r.Pids())
	assert.Equal(t, 4, r.Cap(), "capacity should double when full")

	r.Remove(100)
	assert.Equal(t, []int{200, 300}, r.Pids())
	assert.Equal(t, []int{200, 300, 0, 0}, r.slots, "later entries shift down")
	assert.Equal(t, 4, r.Cap(), "capacity never shrinks")

	r.Remove(999)
	assert.Equal(t, 2, r.Len(), "removing a missing pid is a no-op")
}

func TestRegistry_noDuplicates(t *testing.T) {
	r := NewRegistry(0)
	assert.Equal(t, DefaultCapacity, r.Cap())

	r.Add(42)
	r.Add(42)
	assert.Equal(t, 1, r.Len())

	r.Remove(42)
	assert.False(t, r.Contains(42))

	// The OS may reuse a pid once it has been reaped.
	r.Add(42)
	assert.True(t, r.Contains(42))
}

func TestRegistry_ignoresNonPositive(t *testing.T) {
	r := NewRegistry(1)

	r.Add(0)
	r.Add(-5)
	r.Remove(0)

	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Contains(0))
}

func TestRegistry_randomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := NewRegistry(1)
	model := make(map[int]bool)

	for i := 0; i < 5000; i++ {
		pid := rng.Intn(64) + 1
		if rng.Intn(3) == 0 {
			r.Remove(pid)
			delete(model, pid)
		} else {
			r.Add(pid)
			model[pid] = true
		}

		assert.Equal(t, len(model), r.Len())
		assert.Equal(t, r.Len(), nonZeroSlots(r))

		seen := make(map[int]bool)
		for _, p := range r.Pids() {
			assert.False(t, seen[p], "duplicate pid %d", p)
			assert.True(t, model[p], "unexpected pid %d", p)
			seen[p] = true
		}
	}
}

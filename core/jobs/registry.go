// Package jobs tracks the background processes started by the shell.
package jobs

// DefaultCapacity is the number of slots a new Registry starts with.
const DefaultCapacity = 10

// Registry is a set of process IDs.
//
// Slots holding 0 are free; real pids are always positive. Storage doubles
// when full and never shrinks. The Registry is not safe for concurrent use,
// only the interpreter loop touches it.
type Registry struct {
	slots []int
	size  int
}

// NewRegistry creates an empty registry with room for capacity pids.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{slots: make([]int, capacity)}
}

// Add stores pid. Adding a pid that is already present, or one that isn't
// positive, does nothing.
func (r *Registry) Add(pid int) {
	if pid <= 0 || r.Contains(pid) {
		return
	}

	if r.size == len(r.slots) {
		grown := make([]int, 2*len(r.slots))
		copy(grown, r.slots)
		r.slots = grown
	}

	for i, slot := range r.slots {
		if slot == 0 {
			r.slots[i] = pid
			r.size++
			return
		}
	}
}

// Remove deletes pid, shifting later entries down to close the gap.
func (r *Registry) Remove(pid int) {
	if pid <= 0 {
		return
	}

	for i, slot := range r.slots {
		if slot != pid {
			continue
		}
		copy(r.slots[i:], r.slots[i+1:])
		r.slots[len(r.slots)-1] = 0
		r.size--
		return
	}
}

// Contains reports whether pid is registered.
func (r *Registry) Contains(pid int) bool {
	if pid <= 0 {
		return false
	}
	for _, slot := range r.slots {
		if slot == pid {
			return true
		}
	}
	return false
}

// Len returns the number of registered pids.
func (r *Registry) Len() int {
	return r.size
}

// Cap returns the number of slots currently allocated.
func (r *Registry) Cap() int {
	return len(r.slots)
}

// Pids returns a copy of the registered pids in slot order.
func (r *Registry) Pids() []int {
	out := make([]int, 0, r.size)
	for _, slot := range r.slots {
		if slot != 0 {
			out = append(out, slot)
		}
	}
	return out
}

// Package arena provides a fixed-capacity slot pool with an index-linked free list.
//
// Slots live in a single slice allocated at construction. Acquire and Release are O(1)
// and never allocate, so pointers returned by At stay valid for the life of the Pool.
package arena

const none = -1

// Pool hands out slots of T by index.
type Pool[T any] struct {
	slots []T
	next  []int // free-list link per slot
	used  []bool
	free  int // head of free list, none when exhausted
	inUse int
}

// New allocates a Pool with room for exactly capacity slots.
func New[T any](capacity int) *Pool[T] {
	if capacity < 0 {
		capacity = 0
	}
	p := &Pool[T]{
		slots: make([]T, capacity),
		next:  make([]int, capacity),
		used:  make([]bool, capacity),
	}
	p.Reset()
	return p
}

// Reset zeroes every slot and returns all of them to the free list.
func (p *Pool[T]) Reset() {
	var zero T
	for i := range p.slots {
		p.slots[i] = zero
		p.used[i] = false
		p.next[i] = i + 1
	}
	if n := len(p.slots); n > 0 {
		p.next[n-1] = none
		p.free = 0
	} else {
		p.free = none
	}
	p.inUse = 0
}

// Acquire takes a free slot. ok is false when the pool is exhausted.
func (p *Pool[T]) Acquire() (idx int, ok bool) {
	if p.free == none {
		return none, false
	}
	idx = p.free
	p.free = p.next[idx]
	p.next[idx] = none
	p.used[idx] = true
	p.inUse++
	return idx, true
}

// Release zeroes the slot and pushes it back on the free list. It reports false,
// and changes nothing, when idx is out of range or already free.
func (p *Pool[T]) Release(idx int) bool {
	if !p.InUse(idx) {
		return false
	}
	var zero T
	p.slots[idx] = zero
	p.used[idx] = false
	p.next[idx] = p.free
	p.free = idx
	p.inUse--
	return true
}

// At returns a pointer to slot idx. The pointer is stable; the slice never grows.
func (p *Pool[T]) At(idx int) *T {
	return &p.slots[idx]
}

// InUse reports whether idx names an acquired slot.
func (p *Pool[T]) InUse(idx int) bool {
	return idx >= 0 && idx < len(p.slots) && p.used[idx]
}

// Each calls fn for every acquired slot in index order.
func (p *Pool[T]) Each(fn func(idx int, v *T)) {
	for i := range p.slots {
		if p.used[i] {
			fn(i, &p.slots[i])
		}
	}
}

func (p *Pool[T]) Len() int  { return p.inUse }
func (p *Pool[T]) Cap() int  { return len(p.slots) }
func (p *Pool[T]) Free() int { return len(p.slots) - p.inUse }

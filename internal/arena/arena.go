package arena

import "iter"

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Arena stores values of type T behind generation-checked handles.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	len   int
}

// New creates an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// WithCapacity creates an empty arena with room for n values before growing.
func WithCapacity[T any](n int) *Arena[T] {
	return &Arena[T]{slots: make([]slot[T], 0, n)}
}

// Insert stores v and returns its handle. Freed slots are reused first.
func (a *Arena[T]) Insert(v T) Handle {
	a.len++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.occupied = true
		return Handle{index: idx, generation: s.generation}
	}

	idx := uint32(len(a.slots))
	a.slots = append(a.slots, slot[T]{value: v, generation: 1, occupied: true})
	return Handle{index: idx, generation: 1}
}

// Get returns a pointer to the value addressed by h. The pointer stays valid
// until the next Insert, which may grow the backing slice.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	s, ok := a.lookup(h)
	if !ok {
		return nil, false
	}
	return &s.value, true
}

// Contains reports whether h still resolves.
func (a *Arena[T]) Contains(h Handle) bool {
	_, ok := a.lookup(h)
	return ok
}

// Remove deletes the value addressed by h and returns it. Every outstanding
// copy of h stops resolving.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	s, ok := a.lookup(h)
	if !ok {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.occupied = false
	s.generation++
	a.free = append(a.free, h.index)
	a.len--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.len
}

// All iterates live values in slot order.
func (a *Arena[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if !s.occupied {
				continue
			}
			if !yield(Handle{index: uint32(i), generation: s.generation}, &s.value) {
				return
			}
		}
	}
}

func (a *Arena[T]) lookup(h Handle) (*slot[T], bool) {
	if h.generation == 0 || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return nil, false
	}
	return s, true
}

package ecs

import "iter"

const (
	sparseTombstone       = -1
	sparseInitialCapacity = 128
)

// SparseSet maps entity ids to values. Values live in a dense slice so iteration touches only
// live entries, while lookups go through a sparse slice indexed by the id. Removal moves the last
// dense entry into the vacated slot, so dense order is not insertion order after a removal.
//
// The zero value is an empty set ready to use.
type SparseSet[V any] struct {
	sparse []int
	keys   []EntityID
	values []V
}

// NewSparseSet returns an empty set with room for the first few ids preallocated.
func NewSparseSet[V any]() SparseSet[V] {
	sparse := make([]int, sparseInitialCapacity)
	for i := range sparse {
		sparse[i] = sparseTombstone
	}
	return SparseSet[V]{sparse: sparse}
}

// Len returns the number of entries.
func (s *SparseSet[V]) Len() int {
	return len(s.keys)
}

// Index returns the dense position of key.
func (s *SparseSet[V]) Index(key EntityID) (int, bool) {
	if int(key) >= len(s.sparse) {
		return 0, false
	}
	idx := s.sparse[key]
	return idx, idx != sparseTombstone
}

func (s *SparseSet[V]) Contains(key EntityID) bool {
	_, ok := s.Index(key)
	return ok
}

func (s *SparseSet[V]) Get(key EntityID) (V, bool) {
	idx, ok := s.Index(key)
	if !ok {
		var zero V
		return zero, false
	}
	return s.values[idx], true
}

// GetPtr returns a pointer to the value stored for key, or nil. The pointer is invalidated by the
// next Insert or Remove.
func (s *SparseSet[V]) GetPtr(key EntityID) *V {
	idx, ok := s.Index(key)
	if !ok {
		return nil
	}
	return &s.values[idx]
}

// Insert stores value under key, overwriting any existing value. It reports whether key was new.
func (s *SparseSet[V]) Insert(key EntityID, value V) bool {
	if idx, ok := s.Index(key); ok {
		s.values[idx] = value
		return false
	}
	s.grow(key)
	s.sparse[key] = len(s.keys)
	s.keys = append(s.keys, key)
	s.values = append(s.values, value)
	return true
}

// Remove deletes key and returns its value.
func (s *SparseSet[V]) Remove(key EntityID) (V, bool) {
	var zero V
	idx, ok := s.Index(key)
	if !ok {
		return zero, false
	}
	value := s.values[idx]

	last := len(s.keys) - 1
	if idx != last {
		moved := s.keys[last]
		s.keys[idx] = moved
		s.values[idx] = s.values[last]
		s.sparse[moved] = idx
	}
	s.values[last] = zero
	s.keys = s.keys[:last]
	s.values = s.values[:last]
	s.sparse[key] = sparseTombstone
	return value, true
}

// Keys returns the dense key slice. Callers must not modify it.
func (s *SparseSet[V]) Keys() []EntityID {
	return s.keys
}

// All iterates over entries in dense order.
func (s *SparseSet[V]) All() iter.Seq2[EntityID, V] {
	return func(yield func(EntityID, V) bool) {
		for i, key := range s.keys {
			if !yield(key, s.values[i]) {
				return
			}
		}
	}
}

// Clear removes every entry but keeps the allocated capacity.
func (s *SparseSet[V]) Clear() {
	for _, key := range s.keys {
		s.sparse[key] = sparseTombstone
	}
	clear(s.values)
	s.keys = s.keys[:0]
	s.values = s.values[:0]
}

func (s *SparseSet[V]) grow(key EntityID) {
	if int(key) < len(s.sparse) {
		return
	}
	newLen := max(len(s.sparse)*2, int(key)+1, sparseInitialCapacity)
	grown := make([]int, newLen)
	copy(grown, s.sparse)
	for i := len(s.sparse); i < newLen; i++ {
		grown[i] = sparseTombstone
	}
	s.sparse = grown
}

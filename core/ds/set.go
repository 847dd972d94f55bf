// Package ds provides the small generic collections the bus keeps its
// subscription tables in.
package ds

import (
	"fmt"
	"slices"
)

// Set is an ordered set that maintains both O(1) membership testing and
// insertion order. Subscriber lists are Sets so that fan-out and rotation
// follow subscription order.
//
// The zero value is not usable, create sets with [NewSet].
type Set[T comparable] struct {
	items map[T]struct{}
	order []T // preserves insertion order
}

func (s *Set[T]) String() string {
	return fmt.Sprintf("%v", s.order)
}

// Add adds v to the set. Returns false if v was already present.
func (s *Set[T]) Add(v T) bool {
	if s.Contains(v) {
		return false
	}
	s.items[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Remove removes v from the set and returns the index it had, or -1 if v
// was not present. O(n) in the size of the set.
func (s *Set[T]) Remove(v T) int {
	if !s.Contains(v) {
		return -1
	}
	delete(s.items, v)
	i := slices.Index(s.order, v)
	// order is shared with nobody, Delete in place is fine
	s.order = slices.Delete(s.order, i, i+1)
	return i
}

// Contains returns true if v is present in the set.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.items[v]
	return ok
}

// IndexOf returns the insertion position of v, or -1.
func (s *Set[T]) IndexOf(v T) int {
	if !s.Contains(v) {
		return -1
	}
	return slices.Index(s.order, v)
}

// At returns the element at position i. Panics if i is out of range.
func (s *Set[T]) At(i int) T { return s.order[i] }

// Len returns the number of elements in the set.
func (s *Set[T]) Len() int { return len(s.order) }

// IsEmpty returns true if the set contains no elements.
func (s *Set[T]) IsEmpty() bool { return len(s.order) == 0 }

// ForEach calls fn for every element in insertion order.
func (s *Set[T]) ForEach(fn func(T)) {
	for _, v := range s.order {
		fn(v)
	}
}

// Values returns a copy of the elements in insertion order.
func (s *Set[T]) Values() []T {
	return slices.Clone(s.order)
}

// NewSet creates a new set with the given items.
func NewSet[T comparable](items ...T) *Set[T] {
	set := &Set[T]{items: make(map[T]struct{}, len(items)), order: make([]T, 0, len(items))}
	for _, item := range items {
		set.Add(item)
	}
	return set
}

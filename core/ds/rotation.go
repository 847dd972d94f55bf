package ds

// Rotation is an ordered set with a cursor pointing at the member that is
// next in line. It distributes work round robin and keeps the rotation fair
// when members leave: no remaining member is skipped or served twice
// because someone else was removed.
//
// Invariant: 0 <= cursor < Len(), or cursor == 0 when empty.
//
// Rotation is not safe for concurrent use.
type Rotation[T comparable] struct {
	members *Set[T]
	cursor  int
}

// NewRotation creates an empty rotation.
func NewRotation[T comparable]() *Rotation[T] {
	return &Rotation[T]{members: NewSet[T]()}
}

// Add appends v at the end of the rotation. Returns false if v is already a
// member; the cursor is never moved by Add.
func (r *Rotation[T]) Add(v T) bool { return r.members.Add(v) }

// Remove takes v out of the rotation and adjusts the cursor so that it keeps
// pointing at the same next member:
//
//   - v before the cursor: the cursor shifts back by one
//   - v at the cursor and v was last (or only): the cursor wraps to 0
//   - v at the cursor with a successor: the successor slides into v's
//     index, so the cursor stays where it is
//   - v after the cursor: nothing to do
//
// Returns false if v was not a member.
func (r *Rotation[T]) Remove(v T) bool {
	i := r.members.Remove(v)
	if i < 0 {
		return false
	}
	switch {
	case i < r.cursor:
		r.cursor--
	case i == r.cursor && r.cursor >= r.members.Len():
		r.cursor = 0
	}
	return true
}

// Next returns the member at the cursor and advances the cursor to
// (cursor+1) mod Len(). Returns false if the rotation is empty.
func (r *Rotation[T]) Next() (v T, ok bool) {
	n := r.members.Len()
	if n == 0 {
		return v, false
	}
	v = r.members.At(r.cursor)
	r.cursor = (r.cursor + 1) % n
	return v, true
}

// Peek returns the member Next would return, without advancing.
func (r *Rotation[T]) Peek() (v T, ok bool) {
	if r.members.IsEmpty() {
		return v, false
	}
	return r.members.At(r.cursor), true
}

// Contains reports whether v is a member.
func (r *Rotation[T]) Contains(v T) bool { return r.members.Contains(v) }

// Cursor returns the index of the next member.
func (r *Rotation[T]) Cursor() int { return r.cursor }

// Len returns the number of members.
func (r *Rotation[T]) Len() int { return r.members.Len() }

// Values returns the members in rotation order, starting at index 0.
func (r *Rotation[T]) Values() []T { return r.members.Values() }

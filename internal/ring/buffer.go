// Package ring provides a fixed-capacity FIFO used for rolling histories and logs.
package ring

// Buffer keeps the most recent Cap() values in insertion order.
// Pushing onto a full buffer overwrites the oldest value.
type Buffer[T any] struct {
	items []T
	start int
	n     int
}

// New returns an empty buffer holding at most capacity values.
// A capacity below one is treated as one.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	if b.n < len(b.items) {
		b.items[(b.start+b.n)%len(b.items)] = v
		b.n++
		return
	}
	b.items[b.start] = v
	b.start = (b.start + 1) % len(b.items)
}

// Len returns the number of stored values.
func (b *Buffer[T]) Len() int { return b.n }

// Cap returns the maximum number of stored values.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// At returns the i-th oldest value. It panics when i is out of range.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.n {
		panic("ring: index out of range")
	}
	return b.items[(b.start+i)%len(b.items)]
}

// Last returns the newest value and false when the buffer is empty.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.n == 0 {
		return zero, false
	}
	return b.At(b.n - 1), true
}

// Slice returns a chronological copy of the stored values.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, b.n)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}

// Tail returns a copy of the newest k values in chronological order.
func (b *Buffer[T]) Tail(k int) []T {
	if k > b.n {
		k = b.n
	}
	if k <= 0 {
		return nil
	}
	out := make([]T, k)
	for i := range out {
		out[i] = b.At(b.n - k + i)
	}
	return out
}


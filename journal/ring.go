package journal

import "sync"

// ring keeps the most recent values up to a fixed capacity.
type ring[T any] struct {
	mu      sync.RWMutex
	values  []T
	next    int
	size    int
	dropped uint64
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		panic("journal: capacity must be greater than 0")
	}
	return &ring[T]{values: make([]T, capacity)}
}

// add stores v, overwriting the oldest value when the ring is full.
func (r *ring[T]) add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[r.next] = v
	r.next = (r.next + 1) % len(r.values)
	if r.size < len(r.values) {
		r.size++
	} else {
		r.dropped++
	}
}

// last returns up to n of the most recent values, oldest first.
func (r *ring[T]) last(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := max(min(n, r.size), 0)
	result := make([]T, count)
	start := r.next - count + len(r.values)
	for i := range count {
		result[i] = r.values[(start+i)%len(r.values)]
	}
	return result
}

func (r *ring[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *ring[T]) overwritten() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}

func (r *ring[T]) capacity() int {
	return len(r.values)
}

package history

import (
	"sync"
	"time"

	"procstat-agent/internal/model"
)

// Ring is a bounded FIFO of time-ordered records. A push on a full ring evicts the
// oldest record first; readers never observe a half-applied push.
type Ring[T model.Timestamped] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	count    int
	capacity int
}

func NewRing[T model.Timestamped](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity), capacity: capacity}
}

func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushLocked(v)
}

// PushAll appends records in order under a single lock.
func (r *Ring[T]) PushAll(vs []T) {
	if len(vs) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range vs {
		r.pushLocked(v)
	}
}

func (r *Ring[T]) pushLocked(v T) {
	if r.count == r.capacity {
		var zero T
		r.items[r.head] = zero
		r.head = (r.head + 1) % r.capacity
		r.count--
	}
	r.items[(r.head+r.count)%r.capacity] = v
	r.count++
}

func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

func (r *Ring[T]) Cap() int {
	return r.capacity
}

// Oldest returns the record that will be evicted next.
func (r *Ring[T]) Oldest() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.items[r.head], true
}

// Newest returns the most recently pushed record.
func (r *Ring[T]) Newest() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.items[(r.head+r.count-1)%r.capacity], true
}

// Snapshot copies the ring contents, oldest first.
func (r *Ring[T]) Snapshot() []T {
	return r.Filter(func(T) bool { return true })
}

// Between returns the records with low < timestamp <= high, oldest first.
func (r *Ring[T]) Between(low, high time.Time) []T {
	return r.Filter(func(v T) bool {
		at := v.At()
		return at.After(low) && !at.After(high)
	})
}

// Filter copies the records accepted by keep, oldest first. The result is never nil.
func (r *Ring[T]) Filter(keep func(T) bool) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, r.count)
	for i := 0; i < r.count; i++ {
		v := r.items[(r.head+i)%r.capacity]
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// ForInstance keeps the records of one instance of a multi-instance domain.
func ForInstance[T model.Instanced](records []T, instance string) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if rec.InstanceName() == instance {
			out = append(out, rec)
		}
	}
	return out
}

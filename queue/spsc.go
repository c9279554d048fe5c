package queue

import (
	"errors"
	"sync/atomic"
)

// ErrFull is returned by a non-blocking Push when the queue has no free
// slot. ErrEmpty is returned by a non-blocking Pop when nothing is
// available.
var (
	ErrFull  = errors.New("queue: full")
	ErrEmpty = errors.New("queue: empty")
)

// cacheLine is the padding size used throughout this package to keep the
// producer's write cursor and the consumer's read cursor on separate
// cache lines, matching the source's cache-aligned slot/index design.
const cacheLine = 64

// paddedUint64 is an atomic counter padded to a full cache line so that
// two of them never share a line.
type paddedUint64 struct {
	v   atomic.Uint64
	_   [cacheLine - 8]byte
}

// SPSC is a fixed-capacity single-producer/single-consumer queue. It is a
// direct generalization of the disruptor-style ring buffer this package
// is grounded on, specialized to exactly one producer and one consumer:
// no CAS is needed on the write cursor since only one goroutine ever
// advances it.
type SPSC[T any] struct {
	mask  uint64
	slots []T

	head paddedUint64 // next slot the consumer will read
	tail paddedUint64 // next slot the producer will write
}

// NewSPSC builds an SPSC queue with the given capacity, rounded up to the
// next power of two (required for the index-mask modulo).
func NewSPSC[T any](capacity int) *SPSC[T] {
	n := nextPow2(capacity)
	return &SPSC[T]{mask: uint64(n - 1), slots: make([]T, n)}
}

func nextPow2(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the queue's fixed capacity.
func (q *SPSC[T]) Cap() int { return len(q.slots) }

// TryPush attempts to enqueue v without blocking, returning ErrFull if the
// queue is at capacity.
func (q *SPSC[T]) TryPush(v T) error {
	tail := q.tail.v.Load()
	head := q.head.v.Load()
	if tail-head >= uint64(len(q.slots)) {
		return ErrFull
	}
	q.slots[tail&q.mask] = v
	q.tail.v.Store(tail + 1)
	return nil
}

// Push blocks (per strategy) until there is room.
func (q *SPSC[T]) Push(v T, strategy WaitStrategy) {
	attempt := 0
	for q.TryPush(v) == ErrFull {
		strategy.Wait(attempt)
		attempt++
	}
	strategy.Reset()
}

// TryPop attempts to dequeue a value without blocking, returning ErrEmpty
// if the queue has nothing available.
func (q *SPSC[T]) TryPop() (T, error) {
	var zero T
	head := q.head.v.Load()
	tail := q.tail.v.Load()
	if head >= tail {
		return zero, ErrEmpty
	}
	v := q.slots[head&q.mask]
	q.slots[head&q.mask] = zero
	q.head.v.Store(head + 1)
	return v, nil
}

// Pop blocks (per strategy) until a value is available.
func (q *SPSC[T]) Pop(strategy WaitStrategy) T {
	attempt := 0
	for {
		v, err := q.TryPop()
		if err == nil {
			strategy.Reset()
			return v
		}
		strategy.Wait(attempt)
		attempt++
	}
}

// Len returns the approximate number of queued items. Exact only when
// called from either the producer or consumer goroutine itself; otherwise
// it's a snapshot that may be stale by the time the caller reads it.
func (q *SPSC[T]) Len() int {
	return int(q.tail.v.Load() - q.head.v.Load())
}

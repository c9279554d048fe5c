package queue

import "sync/atomic"

// mpscSlot carries its own publication sequence so a consumer can tell a
// claimed-but-not-yet-written slot from a published one, even though
// producers may finish writing out of claim order.
type mpscSlot[T any] struct {
	seq atomic.Uint64
	val T
	_   [cacheLine - 8]byte
}

// MPSC is a fixed-capacity multi-producer/single-consumer queue using the
// LMAX Disruptor's claim-then-publish protocol: a producer atomically
// claims a ticket (an ever-increasing sequence number), writes its value
// into the corresponding slot, then publishes by storing the ticket+1
// into that slot's sequence field. The consumer only considers a slot
// ready once its sequence matches what the consumer expects, so
// publication order at the consumer always matches claim order even
// though writes themselves can complete out of order across producers.
type MPSC[T any] struct {
	mask  uint64
	slots []mpscSlot[T]

	head paddedUint64   // consumer cursor
	tail atomic.Uint64   // next ticket to claim
	_    [cacheLine - 8]byte
}

// NewMPSC builds an MPSC queue with the given capacity, rounded up to the
// next power of two.
func NewMPSC[T any](capacity int) *MPSC[T] {
	n := nextPow2(capacity)
	return &MPSC[T]{mask: uint64(n - 1), slots: make([]mpscSlot[T], n)}
}

// Cap returns the queue's fixed capacity.
func (q *MPSC[T]) Cap() int { return len(q.slots) }

// TryPush claims a slot and publishes v. Returns ErrFull if the queue is
// at capacity at the moment of the claim attempt (a racing consumer may
// free a slot immediately after, but TryPush does not retry).
func (q *MPSC[T]) TryPush(v T) error {
	for {
		ticket := q.tail.Load()
		head := q.head.v.Load()
		if ticket-head >= uint64(len(q.slots)) {
			return ErrFull
		}
		if q.tail.CompareAndSwap(ticket, ticket+1) {
			slot := &q.slots[ticket&q.mask]
			slot.val = v
			slot.seq.Store(ticket + 1)
			return nil
		}
	}
}

// Push blocks (per strategy) until the claim succeeds and room exists.
func (q *MPSC[T]) Push(v T, strategy WaitStrategy) {
	attempt := 0
	for q.TryPush(v) == ErrFull {
		strategy.Wait(attempt)
		attempt++
	}
	strategy.Reset()
}

// TryPop dequeues the next published value in claim order. Returns
// ErrEmpty if no slot at the consumer's cursor has been published yet —
// including the case where a producer has claimed but not yet finished
// writing that slot.
func (q *MPSC[T]) TryPop() (T, error) {
	var zero T
	head := q.head.v.Load()
	slot := &q.slots[head&q.mask]
	if slot.seq.Load() != head+1 {
		return zero, ErrEmpty
	}
	v := slot.val
	slot.val = zero
	q.head.v.Store(head + 1)
	return v, nil
}

// Pop blocks (per strategy) until a value is available.
func (q *MPSC[T]) Pop(strategy WaitStrategy) T {
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

// Len returns the approximate number of queued items.
func (q *MPSC[T]) Len() int {
	return int(q.tail.Load() - q.head.v.Load())
}

package wire

import (
	"errors"
	"sync/atomic"
)

// ErrSeqNumOverflow is returned by SeqCounter.Next when incrementing would
// wrap a 32-bit sequence number.
var ErrSeqNumOverflow = errors.New("wire: sequence number overflow")

// SeqNum is a 1-based, monotonically increasing per-direction message
// counter.
type SeqNum uint32

// SeqCounter is an atomically-incremented sequence counter: one per session
// per direction. Next is wait-free.
type SeqCounter struct {
	v uint32
}

// NewSeqCounter creates a counter that will next return start.
func NewSeqCounter(start SeqNum) *SeqCounter {
	return &SeqCounter{v: uint32(start) - 1}
}

// Next atomically returns the next sequence number and advances the
// counter. This is the single point of outbound sequence assignment; the
// session must persist the returned value to the store before the
// corresponding bytes are considered sent (see store.Store).
func (c *SeqCounter) Next() (SeqNum, error) {
	v := atomic.AddUint32(&c.v, 1)
	if v == 0 {
		return 0, ErrSeqNumOverflow
	}
	return SeqNum(v), nil
}

// Current returns the last sequence number handed out, without advancing.
func (c *SeqCounter) Current() SeqNum {
	return SeqNum(atomic.LoadUint32(&c.v))
}

// Reset sets the counter so the next call to Next returns start.
func (c *SeqCounter) Reset(start SeqNum) {
	atomic.StoreUint32(&c.v, uint32(start)-1)
}

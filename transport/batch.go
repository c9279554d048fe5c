package transport

import "context"

// BatchSubmitter coalesces several outbound buffers into as few
// underlying I/O operations as possible before returning control to the
// caller. Over TCP this is a simple loop (the TCP transport has no native
// "submit many, wait once" primitive); over the io_uring transport, a
// batch corresponds to queuing one SQE per buffer and issuing a single
// Submit call, which is where the actual syscall-count reduction comes
// from.
type BatchSubmitter struct {
	t Transport
	// pending buffers accumulated since the last Flush.
	pending [][]byte
}

// NewBatchSubmitter wraps t for batched sends.
func NewBatchSubmitter(t Transport) *BatchSubmitter {
	return &BatchSubmitter{t: t}
}

// Enqueue stages buf for the next Flush. buf is not copied; callers must
// not mutate it until Flush returns.
func (b *BatchSubmitter) Enqueue(buf []byte) {
	b.pending = append(b.pending, buf)
}

// Flush sends every staged buffer and clears the batch. On the portable
// TCP transport this is sequential Send calls; an io_uring-backed
// Transport that also implements batchSender gets the true one-syscall
// batched path.
func (b *BatchSubmitter) Flush(ctx context.Context) error {
	defer func() { b.pending = b.pending[:0] }()

	if bs, ok := b.t.(batchSender); ok {
		return bs.SendBatch(ctx, b.pending)
	}
	for _, buf := range b.pending {
		if err := b.t.Send(ctx, buf); err != nil {
			return err
		}
	}
	return nil
}

// Pending reports how many buffers are staged since the last Flush.
func (b *BatchSubmitter) Pending() int { return len(b.pending) }

// batchSender is an optional Transport extension for implementations that
// can submit a whole batch as one underlying operation.
type batchSender interface {
	SendBatch(ctx context.Context, bufs [][]byte) error
}

//go:build !linux

package arena

// NewHeapHugePages falls back to an ordinary Go-heap-backed Heap on
// platforms without Linux huge-page support. The latency benefit is
// lost, not the correctness: callers can always use this unconditionally
// and fall back gracefully, matching the PinCurrentThread pattern in the
// session package for the same "optimization, not requirement" reason.
func NewHeapHugePages(size int) (*Heap, error) {
	return NewHeap(size), nil
}

/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package arena provides the per-session allocation primitives: a bump
// region backing structural-index and builder scratch space, and an
// unbounded object pool for the small fixed-shape values (FieldView
// slices, builder instances) a session thread churns through continuously.
//
// Go's GC already reclaims ordinary allocations, so Heap isn't a manual
// memory manager in the malloc/free sense — it's a single large []byte a
// session thread bump-allocates sub-slices from, so a busy session makes
// one large allocation instead of thousands of small ones. Reset drops the
// cursor and the overflow list in O(1), handing everything back to the GC
// at once instead of one free() per allocation.
package arena

// DefaultHeapSize is the bump region size a session heap starts with,
// matching the 64 MB default.
const DefaultHeapSize = 64 << 20

const bumpAlign = 8

// Heap is a monotonic bump allocator with a general-purpose overflow.
// It is not safe for concurrent use: a Heap belongs to exactly one session
// thread, matching the "exclusive to its session thread" resource rule.
type Heap struct {
	region   []byte
	cursor   int
	overflow [][]byte

	// release, when non-nil, unmaps a region backed by something other
	// than the Go heap (huge pages). Heaps built with NewHeap leave this
	// nil; Close is then a no-op and the region is reclaimed by the GC
	// like any other slice.
	release func() error
}

// NewHeap allocates a Heap with the given bump-region size, backed by an
// ordinary Go-heap allocation.
func NewHeap(size int) *Heap {
	return &Heap{region: make([]byte, size)}
}

// Close releases resources outside the Go heap, if any were used to back
// this Heap's region (see NewHeapHugePages). Safe to call on a Heap from
// NewHeap; it's a no-op there.
func (h *Heap) Close() error {
	if h.release == nil {
		return nil
	}
	release := h.release
	h.release = nil
	return release()
}

func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Alloc returns a zeroed size-byte slice. While the bump region has room,
// it's a cursor bump; once exhausted, Alloc falls back to a fresh
// allocation tracked in the overflow list so Reset can still free it in
// one step.
func (h *Heap) Alloc(size int) []byte {
	aligned := roundUp(size, bumpAlign)
	if h.cursor+aligned <= len(h.region) {
		b := h.region[h.cursor : h.cursor+size : h.cursor+aligned]
		h.cursor += aligned
		clear(b)
		return b
	}
	b := make([]byte, size)
	h.overflow = append(h.overflow, b)
	return b
}

// Used returns the number of bytes bump-allocated from the region so far
// (not counting overflow allocations).
func (h *Heap) Used() int { return h.cursor }

// Overflowed reports whether any allocation has spilled to the
// general-purpose overflow since the last Reset.
func (h *Heap) Overflowed() bool { return len(h.overflow) > 0 }

// Reset drops the overflow allocations and rewinds the bump cursor to
// zero. It is O(1) in the number of allocations that stayed within the
// bump region; only overflow allocations (if any) are handed back to the
// GC individually, and even that is just a slice-header clear, not a
// per-object free.
func (h *Heap) Reset() {
	h.cursor = 0
	if len(h.overflow) > 0 {
		h.overflow = h.overflow[:0]
	}
}

package fixmsg

import (
	"sort"
	"strconv"

	"github.com/lattice-fix/fixengine/simd"
	"github.com/lattice-fix/fixengine/wire"
)

// fieldPos is one (tag-start, equals-offset, value-end) triple into the
// owning buffer. Offsets are strictly monotonic and lie within the
// message's byte range — the Index-building invariant.
type fieldPos struct {
	tag      wire.Tag
	tagStart int
	eqOffset int
	valueEnd int
}

// Index is the structural index for a single message: an ordered sequence
// of field positions, built once by scanning with simd, plus an auxiliary
// tag-sorted view enabling O(log n) lookups. Index does not own the bytes
// it describes — its lifetime is bounded by the buffer it was built over.
type Index struct {
	buf     []byte
	order   []fieldPos // document order
	byTag   []int      // indices into order, sorted by tag then by order
}

// Build scans buf once with the SIMD scanner to find every SOH, then does
// a short scalar scan within each field to locate '='. It aborts with
// MalformedField if '=' is missing or sits at the field's first byte.
func Build(buf []byte) (*Index, error) {
	sohPositions := simd.ScanSOH(buf)

	idx := &Index{
		buf:   buf,
		order: make([]fieldPos, 0, len(sohPositions)),
	}

	start := 0
	for _, sohPos := range sohPositions {
		field := buf[start:sohPos]
		eq := indexByte(field, '=')
		if eq <= 0 {
			return nil, &FrameError{Kind: MalformedField, Detail: "missing or misplaced '=' in field at offset " + itoa(start)}
		}
		tagVal, err := parseTagDigits(field[:eq])
		if err != nil {
			return nil, &FrameError{Kind: MalformedField, Detail: "non-numeric tag at offset " + itoa(start)}
		}
		idx.order = append(idx.order, fieldPos{
			tag:      wire.Tag(tagVal),
			tagStart: start,
			eqOffset: start + eq,
			valueEnd: sohPos,
		})
		start = sohPos + 1
	}

	idx.byTag = make([]int, len(idx.order))
	for i := range idx.byTag {
		idx.byTag[i] = i
	}
	sort.Slice(idx.byTag, func(a, b int) bool {
		ta, tb := idx.order[idx.byTag[a]], idx.order[idx.byTag[b]]
		if ta.tag != tb.tag {
			return ta.tag < tb.tag
		}
		return idx.byTag[a] < idx.byTag[b]
	})

	return idx, nil
}

// Len returns the number of fields in the index.
func (idx *Index) Len() int { return len(idx.order) }

// Field returns a FieldView for the first occurrence (in document order)
// of tag, and true if found.
func (idx *Index) Field(tag wire.Tag) (FieldView, bool) {
	i := sort.Search(len(idx.byTag), func(i int) bool {
		return idx.order[idx.byTag[i]].tag >= tag
	})
	if i == len(idx.byTag) || idx.order[idx.byTag[i]].tag != tag {
		return FieldView{}, false
	}
	// byTag is sorted secondarily by document order, so the first match at
	// this tag is the earliest occurrence.
	p := idx.order[idx.byTag[i]]
	return FieldView{tag: tag, buf: idx.buf, start: p.eqOffset + 1, end: p.valueEnd}, true
}

// All returns FieldViews for every occurrence of tag, in document order.
// Used for repeating groups, where the same tag may legitimately recur.
func (idx *Index) All(tag wire.Tag) []FieldView {
	var out []FieldView
	for _, p := range idx.order {
		if p.tag == tag {
			out = append(out, FieldView{tag: tag, buf: idx.buf, start: p.eqOffset + 1, end: p.valueEnd})
		}
	}
	return out
}

// AtOrdinal returns the FieldView at the given document-order position
// (0-based), used by message-shape accessors that walk repeating groups by
// position rather than by re-searching for a tag.
func (idx *Index) AtOrdinal(i int) (FieldView, bool) {
	if i < 0 || i >= len(idx.order) {
		return FieldView{}, false
	}
	p := idx.order[i]
	return FieldView{tag: p.tag, buf: idx.buf, start: p.eqOffset + 1, end: p.valueEnd}, true
}

// OrdinalOf returns the document-order position of the first field with the
// given tag at or after `from`, or -1 if absent. Used to locate a
// repeating-group's leading counter field (e.g. NoMDEntries) before walking
// its members by ordinal.
func (idx *Index) OrdinalOf(tag wire.Tag, from int) int {
	for i := from; i < len(idx.order); i++ {
		if idx.order[i].tag == tag {
			return i
		}
	}
	return -1
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func parseTagDigits(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, errNotDigits
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, errNotDigits
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

var errNotDigits = &ValueParseError{Reason: "expected digits"}

func itoa(n int) string { return strconv.Itoa(n) }

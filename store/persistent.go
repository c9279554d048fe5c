package store

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/lattice-fix/fixengine/arena"
	"github.com/lattice-fix/fixengine/wire"
)

// Persisted record layout: {seq: u32, ts: u64 nanos, len: u32, bytes[len]},
// little-endian, matching the external wire layout this engine defines
// for its store files.
const recordHeaderSize = 4 + 8 + 4

// magic marks a clean shutdown. Its presence immediately after the last
// record on Open means every byte up to it is a complete, valid record;
// its absence means the process died mid-write and Open must replay from
// the start, truncating at the first incomplete or invalid record.
var magic = [4]byte{0x46, 0x49, 0x58, 0x00} // "FIX\0"

// usedHeaderSize is the fixed 8-byte region at the front of the mapped
// file holding the atomically-updated "bytes used" counter.
const usedHeaderSize = 8

// Persistent is an mmap-backed Store. It reserves a large virtual address
// range up front (capacity) and relies on the OS to commit physical pages
// lazily as the file grows into that range — the common way to get a
// growable append-only log without implementing mremap-based resizing.
type Persistent struct {
	mu       sync.Mutex
	file     *os.File
	data     []byte
	capacity int

	index   map[wire.SeqNum]int64 // seq -> byte offset of record header
	highest wire.SeqNum
	closed  bool

	// highestPub mirrors highest for HighestSeq's reader path: a strategy
	// feed or resend-gap check can poll it without ever contending p.mu
	// against an in-flight Append.
	highestPub arena.Seqlock[wire.SeqNum]
}

// DefaultCapacity is the virtual address range reserved per store file.
// Physical memory and disk usage track actual bytes written, not this
// reservation.
const DefaultCapacity = 1 << 30 // 1 GiB

// OpenPersistent opens (creating if absent) the store file at path,
// mmaps it, and replays existing records to rebuild the in-memory index.
func OpenPersistent(path string, capacity int) (*Persistent, error) {
	if capacity <= usedHeaderSize {
		capacity = DefaultCapacity
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < int64(capacity) {
		if err := f.Truncate(int64(capacity)); err != nil {
			f.Close()
			return nil, err
		}
	}
	data, err := unix.Mmap(int(f.Fd()), 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	p := &Persistent{
		file:     f,
		data:     data,
		capacity: capacity,
		index:    make(map[wire.SeqNum]int64),
	}
	if err := p.replay(); err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, err
	}
	return p, nil
}

func (p *Persistent) usedPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&p.data[0]))
}

func (p *Persistent) loadUsed() int64 {
	return int64(atomic.LoadUint64(p.usedPtr()))
}

func (p *Persistent) storeUsed(n int64) {
	atomic.StoreUint64(p.usedPtr(), uint64(n))
}

// replay walks every record from the start of the log, rebuilding the
// sequence index. If the trailing magic is present immediately after the
// last recorded byte, the log is trusted as-is. Otherwise replay stops
// (and the used counter is truncated) at the first offset that doesn't
// hold a complete, well-formed record — the crash-recovery path.
func (p *Persistent) replay() error {
	used := p.loadUsed()
	if used < 0 || used > int64(p.capacity)-usedHeaderSize {
		used = 0
	}

	body := p.data[usedHeaderSize:]
	cleanShutdown := used >= 4 &&
		used+usedHeaderSize+4 <= int64(p.capacity) &&
		string(body[used-4:used]) == string(magic[:])

	limit := used
	if cleanShutdown {
		limit = used - 4
	}

	var offset int64
	var lastGood int64
	var highest wire.SeqNum
	for offset+recordHeaderSize <= limit {
		seq := binary.LittleEndian.Uint32(body[offset : offset+4])
		length := binary.LittleEndian.Uint32(body[offset+8 : offset+12])
		recEnd := offset + recordHeaderSize + int64(length)
		if recEnd > limit {
			break // truncated trailing record: stop here, don't trust it
		}
		p.index[wire.SeqNum(seq)] = offset
		highest = wire.SeqNum(seq)
		offset = recEnd
		lastGood = offset
	}

	p.highest = highest
	p.highestPub.Store(highest)
	p.storeUsed(lastGood)
	return nil
}

// Append writes rec at the current write offset and advances the used
// counter. Sequence numbers must be contiguous.
func (p *Persistent) Append(rec Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("store: closed")
	}
	if rec.Seq != p.highest+1 {
		return errors.New("store: non-contiguous append")
	}

	used := p.loadUsed()
	need := recordHeaderSize + int64(len(rec.Bytes))
	if usedHeaderSize+used+need+4 > int64(p.capacity) {
		return ErrFull
	}

	body := p.data[usedHeaderSize:]
	off := used
	binary.LittleEndian.PutUint32(body[off:off+4], uint32(rec.Seq))
	binary.LittleEndian.PutUint64(body[off+4:off+12], uint64(rec.TimestampNanos))
	binary.LittleEndian.PutUint32(body[off+12:off+16], uint32(len(rec.Bytes)))
	copy(body[off+recordHeaderSize:off+need], rec.Bytes)

	p.index[rec.Seq] = off
	p.highest = rec.Seq
	p.highestPub.Store(rec.Seq)
	p.storeUsed(used + need)
	return nil
}

func (p *Persistent) Retrieve(seq wire.SeqNum) (Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	off, ok := p.index[seq]
	if !ok {
		return Record{}, ErrNotFound
	}
	body := p.data[usedHeaderSize:]
	length := binary.LittleEndian.Uint32(body[off+12 : off+16])
	ts := int64(binary.LittleEndian.Uint64(body[off+4 : off+12]))
	bytes := make([]byte, length)
	copy(bytes, body[off+recordHeaderSize:off+recordHeaderSize+int64(length)])
	return Record{Seq: seq, TimestampNanos: ts, Bytes: bytes}, nil
}

// HighestSeq returns the highest sequence number durably appended so far.
// It never blocks on p.mu: Append can be mid-write while this is called
// from another goroutine, and the seqlock retry is cheaper than making
// every reader queue behind the writer's lock.
func (p *Persistent) HighestSeq() wire.SeqNum {
	return p.highestPub.Load()
}

// Close appends the clean-shutdown magic, syncs, and unmaps. A store
// reopened after Close completed sees cleanShutdown==true in replay, which
// still walks every record to rebuild the index but stops before the magic.
func (p *Persistent) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	used := p.loadUsed()
	body := p.data[usedHeaderSize:]
	copy(body[used:used+4], magic[:])
	p.storeUsed(used + 4)

	if err := unix.Msync(p.data, unix.MS_SYNC); err != nil {
		unix.Munmap(p.data)
		p.file.Close()
		return err
	}
	if err := unix.Munmap(p.data); err != nil {
		p.file.Close()
		return err
	}
	return p.file.Close()
}

// closeDirty unmaps and closes without writing the clean-shutdown magic,
// simulating a crash for replay-path tests.
func (p *Persistent) closeDirty() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := unix.Munmap(p.data); err != nil {
		p.file.Close()
		return err
	}
	return p.file.Close()
}

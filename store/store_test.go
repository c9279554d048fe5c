package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-fix/fixengine/wire"
)

func TestMemory_AppendRetrieveDensity(t *testing.T) {
	m := NewMemory()
	for i := 1; i <= 5; i++ {
		require.NoError(t, m.Append(Record{Seq: wire.SeqNum(i), Bytes: []byte{byte(i)}}))
	}
	require.EqualValues(t, 5, m.HighestSeq())
	for i := 1; i <= 5; i++ {
		rec, err := m.Retrieve(wire.SeqNum(i))
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, rec.Bytes)
	}
}

func TestMemory_RejectsGapAndOutOfOrder(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Append(Record{Seq: 1, Bytes: []byte("a")}))
	require.Error(t, m.Append(Record{Seq: 3, Bytes: []byte("c")}))
	require.Error(t, m.Append(Record{Seq: 1, Bytes: []byte("a")}))
}

func TestMemory_RetrieveMissingReturnsNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Retrieve(1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPersistent_AppendRetrieveAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.store")

	p, err := OpenPersistent(path, 1<<20)
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		require.NoError(t, p.Append(Record{Seq: wire.SeqNum(i), TimestampNanos: int64(i * 1000), Bytes: []byte{byte(i), byte(i + 1)}}))
	}
	require.EqualValues(t, 10, p.HighestSeq())
	require.NoError(t, p.Close())

	p2, err := OpenPersistent(path, 1<<20)
	require.NoError(t, err)
	defer p2.Close()
	require.EqualValues(t, 10, p2.HighestSeq())
	for i := 1; i <= 10; i++ {
		rec, err := p2.Retrieve(wire.SeqNum(i))
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i), byte(i + 1)}, rec.Bytes)
		require.Equal(t, int64(i*1000), rec.TimestampNanos)
	}
}

func TestPersistent_HighestSeqLockFreeUnderConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.store")
	p, err := OpenPersistent(path, 1<<20)
	require.NoError(t, err)
	defer p.Close()

	const n = 500
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= n; i++ {
			require.NoError(t, p.Append(Record{Seq: wire.SeqNum(i), TimestampNanos: int64(i), Bytes: []byte{byte(i)}}))
		}
	}()

	var lastSeen wire.SeqNum
	for {
		seen := p.HighestSeq()
		require.GreaterOrEqual(t, seen, lastSeen, "HighestSeq must never regress")
		lastSeen = seen
		select {
		case <-done:
			require.EqualValues(t, n, p.HighestSeq())
			return
		default:
		}
	}
}

func TestPersistent_ReplayTruncatesUncleanShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.store")

	p, err := OpenPersistent(path, 1<<20)
	require.NoError(t, err)
	require.NoError(t, p.Append(Record{Seq: 1, Bytes: []byte("first")}))
	require.NoError(t, p.Append(Record{Seq: 2, Bytes: []byte("second")}))
	// Simulate a crash: unmap without writing the clean-shutdown magic.
	require.NoError(t, p.closeDirty())

	p2, err := OpenPersistent(path, 1<<20)
	require.NoError(t, err)
	defer p2.Close()
	require.EqualValues(t, 2, p2.HighestSeq())
	rec, err := p2.Retrieve(2)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), rec.Bytes)
}

func TestPersistent_RejectsNonContiguousAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.store")
	p, err := OpenPersistent(path, 1<<20)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Append(Record{Seq: 1, Bytes: []byte("x")}))
	require.Error(t, p.Append(Record{Seq: 3, Bytes: []byte("y")}))
}

func TestAudit_RecordAndQueryEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	a, err := OpenAudit(path)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.RecordEvent("SESSION-1", 0, "connect", "", 100))
	require.NoError(t, a.RecordEvent("SESSION-1", 1, "logon", "heartbt=30", 200))
	require.NoError(t, a.RecordEvent("SESSION-2", 0, "connect", "", 150))

	events, err := a.Events("SESSION-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "connect", events[0].Kind)
	require.Equal(t, "logon", events[1].Kind)
	require.EqualValues(t, 1, events[1].Seq)
}

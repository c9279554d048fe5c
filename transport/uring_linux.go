//go:build linux && io_uring

package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"syscall"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// unsafePtr extracts the address of buf's first byte for handoff to the
// ring's unaligned/unmanaged SQE buffer pointer fields. buf must stay
// alive (and unmoved) until the corresponding CQE is reaped; callers here
// satisfy that by waiting for the completion inline before returning.
func unsafePtr(buf []byte) unsafe.Pointer {
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Pointer(&buf[0])
}

// uringEntries is the submission/completion ring depth. 256 comfortably
// covers a single session's in-flight send+recv operations with room for
// the batch submitter to coalesce several sends before one Submit call.
const uringEntries = 256

// ErrPlatformUnsupported is returned (joined with the ring-creation error)
// by NewUring when the kernel refuses to create an io_uring instance.
var ErrPlatformUnsupported = errors.New("transport: io_uring not available on this kernel, use TCP")

// Uring is the async io_uring transport. One Ring per transport; a
// session owns its transport exclusively, so no locking is needed around
// SQE acquisition — only Close needs to guard against a concurrent
// in-flight operation being torn down underneath it.
type Uring struct {
	listenAddr string

	mu       sync.Mutex
	fd       int
	listenFd int
	ring     *giouring.Ring
	closed   bool
}

// NewUring builds an io_uring-backed transport. Falls back is the
// caller's responsibility: construction fails outright (PlatformUnsupported)
// if the kernel doesn't support io_uring, so callers should catch that and
// construct a TCP transport instead rather than the library silently
// choosing for them.
func NewUring(listenAddr string) (*Uring, error) {
	ring, err := giouring.CreateRing(uringEntries)
	if err != nil {
		return nil, errors.Join(ErrPlatformUnsupported, err)
	}
	return &Uring{listenAddr: listenAddr, ring: ring, fd: -1, listenFd: -1}, nil
}

func dialRawFD(ctx context.Context, address string) (int, error) {
	var raw syscall.RawConn
	d := net.Dialer{
		Control: func(_, _ string, c syscall.RawConn) error {
			raw = c
			return nil
		},
	}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return -1, classifyDialErr(err)
	}
	defer conn.Close()

	var fd int
	var dupErr error
	err = raw.Control(func(sysFd uintptr) {
		fd, dupErr = syscall.Dup(int(sysFd))
	})
	if err != nil {
		return -1, err
	}
	if dupErr != nil {
		return -1, dupErr
	}
	_ = syscall.SetNonblock(fd, false)
	return fd, nil
}

func (t *Uring) Connect(ctx context.Context, ep Endpoint) error {
	fd, err := dialRawFD(ctx, ep.Address)
	if err != nil {
		return err
	}
	_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1)
	t.mu.Lock()
	t.fd = fd
	t.mu.Unlock()
	return nil
}

func (t *Uring) Accept(ctx context.Context) error {
	return errors.New("transport: Uring.Accept not supported, use TCP for the listening side")
}

// Send submits a single SQE for buf and waits for its completion. For
// batched multi-buffer sends, use BatchSubmitter instead of calling Send
// in a tight loop: each Send here is a full submit-and-wait round trip.
func (t *Uring) Send(ctx context.Context, buf []byte) error {
	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()
	if fd < 0 {
		return ErrClosed
	}

	total := 0
	for total < len(buf) {
		sqe := t.ring.GetSQE()
		if sqe == nil {
			if _, err := t.ring.Submit(); err != nil {
				return err
			}
			sqe = t.ring.GetSQE()
		}
		sqe.PrepareSend(fd, uintptr(unsafePtr(buf[total:])), uint32(len(buf)-total), 0)
		sqe.UserData = 1

		if _, err := t.ring.Submit(); err != nil {
			return err
		}
		cqe, err := t.ring.WaitCQE()
		if err != nil {
			return err
		}
		n := int(cqe.Res)
		t.ring.SeenCQE(cqe)
		if n < 0 {
			return classifyIOErr(syscall.Errno(-n))
		}
		total += n
	}
	return nil
}

// Recv submits a single SQE into buf and waits for its completion,
// returning the number of bytes placed into buf.
func (t *Uring) Recv(ctx context.Context, buf []byte) (int, error) {
	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()
	if fd < 0 {
		return 0, ErrClosed
	}

	sqe := t.ring.GetSQE()
	if sqe == nil {
		if _, err := t.ring.Submit(); err != nil {
			return 0, err
		}
		sqe = t.ring.GetSQE()
	}
	sqe.PrepareRecv(fd, uintptr(unsafePtr(buf)), uint32(len(buf)), 0)
	sqe.UserData = 2

	if _, err := t.ring.Submit(); err != nil {
		return 0, err
	}
	cqe, err := t.ring.WaitCQE()
	if err != nil {
		return 0, err
	}
	n := int(cqe.Res)
	t.ring.SeenCQE(cqe)
	if n < 0 {
		return 0, classifyIOErr(syscall.Errno(-n))
	}
	return n, nil
}

// SendBatch queues one SQE per buffer and issues a single Submit,
// reaping all completions before returning. This is the batched path
// BatchSubmitter.Flush prefers when the underlying Transport supports it.
func (t *Uring) SendBatch(ctx context.Context, bufs [][]byte) error {
	t.mu.Lock()
	fd := t.fd
	t.mu.Unlock()
	if fd < 0 {
		return ErrClosed
	}
	if len(bufs) == 0 {
		return nil
	}

	queued := 0
	for _, buf := range bufs {
		if len(buf) == 0 {
			continue
		}
		sqe := t.ring.GetSQE()
		if sqe == nil {
			if _, err := t.ring.Submit(); err != nil {
				return err
			}
			sqe = t.ring.GetSQE()
		}
		sqe.PrepareSend(fd, uintptr(unsafePtr(buf)), uint32(len(buf)), 0)
		sqe.UserData = uint64(queued)
		queued++
	}
	if queued == 0 {
		return nil
	}
	if _, err := t.ring.Submit(); err != nil {
		return err
	}
	for i := 0; i < queued; i++ {
		cqe, err := t.ring.WaitCQE()
		if err != nil {
			return err
		}
		res := int(cqe.Res)
		t.ring.SeenCQE(cqe)
		if res < 0 {
			return classifyIOErr(syscall.Errno(-res))
		}
	}
	return nil
}

func (t *Uring) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	if t.fd >= 0 {
		_ = syscall.Close(t.fd)
	}
	if t.listenFd >= 0 {
		_ = syscall.Close(t.listenFd)
	}
	t.ring.QueueExit()
	return nil
}

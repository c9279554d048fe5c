package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// TCP is the portable synchronous transport: a single raw socket fd, guarded
// by a mutex against concurrent Close racing an in-flight Send/Recv. It is
// built directly on golang.org/x/sys/unix rather than net.Conn so that
// TCP_NODELAY and per-call deadlines go through the same syscall surface the
// io_uring transport uses for its own socket setup. It is the
// PlatformUnsupported fallback this engine degrades to silently wherever the
// io_uring build tag isn't active or the host doesn't support it.
type TCP struct {
	listenAddr string

	mu         sync.Mutex
	fd         int
	haveFd     bool
	listenFd   int
	haveListen bool
	closed     bool
}

// NewTCP builds a TCP transport. listenAddr is only used by Accept; a
// transport that only ever dials out can leave it empty.
func NewTCP(listenAddr string) *TCP {
	return &TCP{listenAddr: listenAddr}
}

// resolveSockaddr turns a "host:port" string into a unix.Sockaddr. Name
// resolution still goes through net.LookupIP; the raw-socket treatment below
// starts at unix.Socket, where the grounding example stops doing DNS too.
func resolveSockaddr(address string) (unix.Sockaddr, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("bad port %q: %w", portStr, err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lerr := net.LookupIP(host)
		if lerr != nil || len(ips) == 0 {
			return nil, fmt.Errorf("resolve %q: %w", host, lerr)
		}
		ip = ips[0]
	}

	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, nil
}

func domainFor(sa unix.Sockaddr) int {
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

func setNoDelay(fd int) {
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
}

// deadlineTimeval converts a context deadline to a Timeval for
// SO_SNDTIMEO/SO_RCVTIMEO; the zero Timeval means "no timeout," matching
// unix's own semantics for those options.
func deadlineTimeval(ctx context.Context) unix.Timeval {
	dl, ok := ctx.Deadline()
	if !ok {
		return unix.Timeval{}
	}
	d := time.Until(dl)
	if d < 0 {
		d = 0
	}
	return unix.NsecToTimeval(d.Nanoseconds())
}

func (t *TCP) Connect(ctx context.Context, ep Endpoint) error {
	sa, err := resolveSockaddr(ep.Address)
	if err != nil {
		return err
	}
	fd, err := unix.Socket(domainFor(sa), unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return classifyErrno(err)
	}
	tv := deadlineTimeval(ctx)
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return classifyErrno(err)
	}
	setNoDelay(fd)

	t.mu.Lock()
	t.fd, t.haveFd = fd, true
	t.mu.Unlock()
	return nil
}

func (t *TCP) Accept(ctx context.Context) error {
	t.mu.Lock()
	listenFd, haveListen := t.listenFd, t.haveListen
	t.mu.Unlock()

	if !haveListen {
		sa, err := resolveSockaddr(t.listenAddr)
		if err != nil {
			return err
		}
		fd, err := unix.Socket(domainFor(sa), unix.SOCK_STREAM, unix.IPPROTO_TCP)
		if err != nil {
			return classifyErrno(err)
		}
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return classifyErrno(err)
		}
		if err := unix.Bind(fd, sa); err != nil {
			unix.Close(fd)
			return classifyErrno(err)
		}
		if err := unix.Listen(fd, 16); err != nil {
			unix.Close(fd)
			return classifyErrno(err)
		}
		t.mu.Lock()
		t.listenFd, t.haveListen = fd, true
		t.mu.Unlock()
		listenFd = fd
	}

	type result struct {
		fd  int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		nfd, _, aerr := unix.Accept(listenFd)
		ch <- result{nfd, aerr}
	}()

	select {
	case <-ctx.Done():
		return ErrTimeout
	case r := <-ch:
		if r.err != nil {
			return classifyErrno(r.err)
		}
		setNoDelay(r.fd)
		t.mu.Lock()
		t.fd, t.haveFd = r.fd, true
		t.mu.Unlock()
		return nil
	}
}

func (t *TCP) Send(ctx context.Context, buf []byte) error {
	t.mu.Lock()
	fd, have := t.fd, t.haveFd
	t.mu.Unlock()
	if !have {
		return ErrClosed
	}
	tv := deadlineTimeval(ctx)
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			return classifyErrno(err)
		}
		buf = buf[n:]
	}
	return nil
}

func (t *TCP) Recv(ctx context.Context, buf []byte) (int, error) {
	t.mu.Lock()
	fd, have := t.fd, t.haveFd
	t.mu.Unlock()
	if !have {
		return 0, ErrClosed
	}
	tv := deadlineTimeval(ctx)
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return n, classifyErrno(err)
	}
	return n, nil
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	var err error
	if t.haveFd {
		err = unix.Close(t.fd)
	}
	if t.haveListen {
		if lerr := unix.Close(t.listenFd); err == nil {
			err = lerr
		}
	}
	return err
}

func classifyErrno(err error) error {
	if errors.Is(err, unix.ECONNREFUSED) {
		return ErrRefused
	}
	if errors.Is(err, unix.EHOSTUNREACH) || errors.Is(err, unix.ENETUNREACH) {
		return ErrUnreachable
	}
	if errors.Is(err, unix.ECONNRESET) || errors.Is(err, unix.EPIPE) {
		return ErrReset
	}
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return ErrWouldBlock
	}
	if errors.Is(err, unix.ETIMEDOUT) {
		return ErrTimeout
	}
	return err
}

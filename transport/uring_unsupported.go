//go:build !(linux && io_uring)

package transport

import (
	"context"
	"errors"
)

// ErrPlatformUnsupported is returned by NewUring on any build where the
// io_uring implementation wasn't compiled in (non-Linux, or the io_uring
// build tag wasn't passed). Per the error taxonomy, this degrades
// silently to the portable path: callers should construct a TCP
// transport instead, not treat this as fatal.
var ErrPlatformUnsupported = errors.New("transport: io_uring not available on this build, use TCP")

// Uring is a stub on platforms without the io_uring build tag. It exists
// so callers can reference transport.Uring unconditionally and only need
// a runtime fallback, not a build-tag-gated call site of their own.
type Uring struct{}

func NewUring(listenAddr string) (*Uring, error) {
	return nil, ErrPlatformUnsupported
}

func (t *Uring) Connect(ctx context.Context, ep Endpoint) error { return ErrPlatformUnsupported }
func (t *Uring) Accept(ctx context.Context) error               { return ErrPlatformUnsupported }
func (t *Uring) Send(ctx context.Context, buf []byte) error     { return ErrPlatformUnsupported }
func (t *Uring) Recv(ctx context.Context, buf []byte) (int, error) {
	return 0, ErrPlatformUnsupported
}
func (t *Uring) Close() error { return ErrPlatformUnsupported }

//go:build linux

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewHeapHugePages allocates a Heap whose bump region is a single
// mmap'd, huge-page-backed mapping rather than a Go-heap slice, cutting
// TLB misses on the largest session heaps (DefaultHeapSize and up). It
// first tries MAP_HUGETLB (requires /proc/sys/vm/nr_hugepages to have
// reserved pages); if the kernel refuses that, it falls back to a normal
// anonymous mapping with MADV_HUGEPAGE advice, which only asks the
// kernel to promote the mapping via Transparent Huge Pages on a
// best-effort basis. Callers must call Close when the session ends to
// munmap the region.
func NewHeapHugePages(size int) (*Heap, error) {
	size = roundUp(size, unix.Getpagesize())

	region, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB)
	if err != nil {
		region, err = unix.Mmap(-1, 0, size,
			unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			return nil, fmt.Errorf("arena: mmap huge-page heap: %w", err)
		}
		_ = unix.Madvise(region, unix.MADV_HUGEPAGE)
	}

	return &Heap{
		region: region,
		release: func() error {
			return unix.Munmap(region)
		},
	}, nil
}

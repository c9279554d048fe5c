// Benchmarks for the SOH scanner and checksum tiers.
// Run with: go test -bench=. -benchmem ./simd/
package simd

import (
	"fmt"
	"testing"
)

func BenchmarkScanSOH(b *testing.B) {
	for _, n := range []int{64, 256, 1024, 4096} {
		buf := sample(n, int64(n))
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			b.SetBytes(int64(n))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = ScanSOH(buf)
			}
		})
	}
}

func BenchmarkChecksum(b *testing.B) {
	for _, n := range []int{64, 256, 1024, 4096} {
		buf := sample(n, int64(n))
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			b.SetBytes(int64(n))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Checksum(buf)
			}
		})
	}
}

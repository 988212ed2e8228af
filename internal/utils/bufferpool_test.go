package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// These sizes mirror what skimmer_mutate.go actually pulls from the
// pool: the 47-byte archive header, a handful of representative entry
// block sizes, and a multi-kilobyte Append prefix copy.
func TestGetBufferSizesUsedBySkimmer(t *testing.T) {
	for _, size := range []int{47, 281, 512, 4096, 4097, 65536} {
		buf := GetBuffer(size)
		require.Len(t, buf, size)
		require.GreaterOrEqual(t, cap(buf), size)
		ReleaseBuffer(buf)
	}
}

func TestGetBufferZeroSize(t *testing.T) {
	buf := GetBuffer(0)
	require.NotNil(t, buf)
	require.Empty(t, buf)
	ReleaseBuffer(buf)
}

func TestReleaseBufferResetsLengthForReuse(t *testing.T) {
	buf := GetBuffer(1024)
	for i := range buf {
		buf[i] = 0xAA
	}
	ReleaseBuffer(buf)

	// A pooled buffer comes back re-sliced to the new request; its old
	// contents are never exposed through the returned length.
	reused := GetBuffer(4)
	require.Len(t, reused, 4)
	ReleaseBuffer(reused)
}

func TestBufferPoolConcurrentGetRelease(t *testing.T) {
	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				size := 47 + (id+i)%4096
				buf := GetBuffer(size)
				require.Len(t, buf, size)
				for j := range buf {
					buf[j] = byte(j)
				}
				ReleaseBuffer(buf)
			}
		}(w)
	}
	wg.Wait()
}

func BenchmarkGetBufferEntrySized(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := GetBuffer(281)
		ReleaseBuffer(buf)
	}
}

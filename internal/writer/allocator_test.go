package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllocator(t *testing.T) {
	tests := []struct {
		name          string
		initialOffset uint64
		wantOffset    uint64
	}{
		{"zero offset", 0, 0},
		{"after archive header", 47, 47},
		{"custom offset", 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := NewAllocator(tt.initialOffset)
			assert.NotNil(t, alloc)
			assert.Equal(t, tt.wantOffset, alloc.EndOfFile())
			assert.Empty(t, alloc.blocks)
		})
	}
}

func TestAllocate(t *testing.T) {
	t.Run("sequential allocations", func(t *testing.T) {
		alloc := NewAllocator(47) // After the archive header

		addr1, err := alloc.Allocate(100)
		require.NoError(t, err)
		assert.Equal(t, uint64(47), addr1)
		assert.Equal(t, uint64(147), alloc.EndOfFile())

		addr2, err := alloc.Allocate(200)
		require.NoError(t, err)
		assert.Equal(t, uint64(147), addr2)
		assert.Equal(t, uint64(347), alloc.EndOfFile())

		addr3, err := alloc.Allocate(50)
		require.NoError(t, err)
		assert.Equal(t, uint64(347), addr3)
		assert.Equal(t, uint64(397), alloc.EndOfFile())
	})

	t.Run("zero size allocation fails", func(t *testing.T) {
		alloc := NewAllocator(0)

		addr, err := alloc.Allocate(0)
		assert.Error(t, err)
		assert.Equal(t, uint64(0), addr)
		assert.Contains(t, err.Error(), "cannot allocate zero bytes")
	})

	t.Run("large allocation", func(t *testing.T) {
		alloc := NewAllocator(0)

		size := uint64(10 * 1024 * 1024)
		addr, err := alloc.Allocate(size)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), addr)
		assert.Equal(t, size, alloc.EndOfFile())
	})
}

func TestBlocks(t *testing.T) {
	t.Run("empty allocator", func(t *testing.T) {
		alloc := NewAllocator(0)
		blocks := alloc.Blocks()
		assert.Empty(t, blocks)
	})

	t.Run("sorted blocks", func(t *testing.T) {
		alloc := NewAllocator(0)

		_, _ = alloc.Allocate(100)
		_, _ = alloc.Allocate(200)
		_, _ = alloc.Allocate(50)

		blocks := alloc.Blocks()
		require.Len(t, blocks, 3)

		assert.Equal(t, uint64(0), blocks[0].Offset)
		assert.Equal(t, uint64(100), blocks[0].Size)

		assert.Equal(t, uint64(100), blocks[1].Offset)
		assert.Equal(t, uint64(200), blocks[1].Size)

		assert.Equal(t, uint64(300), blocks[2].Offset)
		assert.Equal(t, uint64(50), blocks[2].Size)
	})

	t.Run("blocks are copy", func(t *testing.T) {
		alloc := NewAllocator(0)
		_, _ = alloc.Allocate(100)

		blocks := alloc.Blocks()
		require.Len(t, blocks, 1)

		blocks[0].Size = 999

		blocks2 := alloc.Blocks()
		require.Len(t, blocks2, 1)
		assert.Equal(t, uint64(100), blocks2[0].Size)
	})
}

func TestValidateNoOverlaps(t *testing.T) {
	t.Run("no overlaps", func(t *testing.T) {
		alloc := NewAllocator(0)

		_, _ = alloc.Allocate(100)
		_, _ = alloc.Allocate(200)
		_, _ = alloc.Allocate(50)

		err := alloc.ValidateNoOverlaps()
		assert.NoError(t, err)
	})

	t.Run("empty allocator", func(t *testing.T) {
		alloc := NewAllocator(0)
		err := alloc.ValidateNoOverlaps()
		assert.NoError(t, err)
	})

	t.Run("single block", func(t *testing.T) {
		alloc := NewAllocator(0)
		_, _ = alloc.Allocate(100)

		err := alloc.ValidateNoOverlaps()
		assert.NoError(t, err)
	})
}

func TestAllocatorEndOfFile(t *testing.T) {
	tests := []struct {
		name          string
		initialOffset uint64
		allocations   []uint64
		expectedEOF   uint64
	}{
		{
			name:          "no allocations",
			initialOffset: 48,
			allocations:   []uint64{},
			expectedEOF:   48,
		},
		{
			name:          "single allocation",
			initialOffset: 48,
			allocations:   []uint64{100},
			expectedEOF:   148,
		},
		{
			name:          "multiple allocations",
			initialOffset: 48,
			allocations:   []uint64{100, 200, 50},
			expectedEOF:   398,
		},
		{
			name:          "large allocations",
			initialOffset: 0,
			allocations:   []uint64{1024, 2048, 4096},
			expectedEOF:   7168,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := NewAllocator(tt.initialOffset)

			for _, size := range tt.allocations {
				_, err := alloc.Allocate(size)
				require.NoError(t, err)
			}

			assert.Equal(t, tt.expectedEOF, alloc.EndOfFile())
		})
	}
}

func BenchmarkAllocate(b *testing.B) {
	alloc := NewAllocator(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = alloc.Allocate(1024)
	}
}

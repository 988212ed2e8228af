package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndBytes(t *testing.T) {
	b := New(4)
	b.Append([]byte{1, 2, 3})
	b.AppendByte(4)
	require.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
	require.Equal(t, uint64(4), b.Len())
}

func TestReadWriteAt(t *testing.T) {
	b := New(0)
	b.Append([]byte{0, 0, 0})
	b.WriteAt(1, 0xAB)
	require.Equal(t, byte(0xAB), b.ReadAt(1))
}

func TestIterateBytes(t *testing.T) {
	b := New(0)
	b.Append([]byte{1, 2, 3})
	var seen []byte
	b.IterateBytes(func(c byte) { seen = append(seen, c) })
	require.Equal(t, []byte{1, 2, 3}, seen)
}

func TestIterateWords32IgnoresTrailingRemainder(t *testing.T) {
	b := New(0)
	b.Append([]byte{0, 0, 0, 1, 0, 0, 0, 2, 0xFF, 0xEE}) // 2 trailing bytes
	var words []uint32
	b.IterateWords32(func(w uint32) { words = append(words, w) })
	require.Equal(t, []uint32{1, 2}, words)
}

func TestWrapResumesAppending(t *testing.T) {
	b := Wrap([]byte{1, 2})
	b.Append([]byte{3, 4})
	require.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
}

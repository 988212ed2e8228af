// Package buffer implements the large byte buffer primitive: a
// contiguous, 64-bit-indexable byte container used by the in-memory
// engine to assemble and inspect whole archives.
package buffer

// Buffer is an append-only, randomly-addressable byte container. Its
// length and indices are exposed as 64-bit values; the storage is a
// Go slice, so its size is still bounded by the platform's int range.
type Buffer struct {
	data []byte
}

// New returns an empty Buffer pre-sized to hold capacity bytes without
// reallocating.
func New(capacity uint64) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Wrap returns a Buffer backed directly by data, with the cursor at the
// end of it (used to resume appending to already-serialized bytes).
func Wrap(data []byte) *Buffer {
	return &Buffer{data: data}
}

// AppendByte appends a single byte at the cursor.
func (b *Buffer) AppendByte(c byte) {
	b.data = append(b.data, c)
}

// Append appends p at the cursor.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() uint64 {
	return uint64(len(b.data))
}

// Bytes returns the buffer's contents. The returned slice aliases the
// buffer's storage and must not be retained across further appends.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// ReadAt returns the byte at the given 64-bit index.
func (b *Buffer) ReadAt(index uint64) byte {
	return b.data[index]
}

// WriteAt overwrites the byte at the given 64-bit index.
func (b *Buffer) WriteAt(index uint64, c byte) {
	b.data[index] = c
}

// IterateBytes visits every byte in the buffer in order.
func (b *Buffer) IterateBytes(f func(byte)) {
	for _, c := range b.data {
		f(c)
	}
}

// IterateWords32 visits consecutive 4-byte big-endian words. A trailing
// remainder of 1-3 bytes, if the buffer's length is not a multiple of
// 4, is ignored: the archive-level CRC relies on exactly this behavior.
func (b *Buffer) IterateWords32(f func(uint32)) {
	n := len(b.data) - len(b.data)%4
	for i := 0; i < n; i += 4 {
		w := uint32(b.data[i])<<24 | uint32(b.data[i+1])<<16 | uint32(b.data[i+2])<<8 | uint32(b.data[i+3])
		f(w)
	}
}

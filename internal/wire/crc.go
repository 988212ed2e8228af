package wire

import "hash/crc32"

// CRC computes the IEEE 802.3 (zlib) CRC-32 of buffer.
func CRC(buffer []byte) uint32 {
	return crc32.ChecksumIEEE(buffer)
}

// NewAccumulator returns a fresh CRC-32 accumulator using the IEEE
// polynomial, ready to be fed via UpdateBytes/UpdateWord.
func NewAccumulator() *Accumulator {
	return &Accumulator{table: crc32.IEEETable}
}

// Accumulator is an incremental CRC-32 computation. It supports the two
// update modes the archive-level CRC needs: raw bytes, and big-endian
// 32-bit words (used when folding sorted per-entry CRCs together).
type Accumulator struct {
	table *crc32.Table
	crc   uint32
}

// UpdateBytes feeds raw bytes into the accumulator.
func (a *Accumulator) UpdateBytes(data []byte) {
	a.crc = crc32.Update(a.crc, a.table, data)
}

// UpdateWord feeds a big-endian 32-bit word into the accumulator.
func (a *Accumulator) UpdateWord(word uint32) {
	a.UpdateBytes(PutUint32(word))
}

// Sum returns the accumulated CRC-32 value.
func (a *Accumulator) Sum() uint32 {
	return a.crc
}

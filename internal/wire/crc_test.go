package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRCMatchesScenarioTwo(t *testing.T) {
	// From the spec's "single file" scenario: payload length prefix
	// 00 00 00 00 00 02 followed by "hi".
	buf := append(PutUint48(2), []byte("hi")...)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 2, 'h', 'i'}, buf)
	require.Equal(t, uint32(0xFFEC3354), CRC(buf))
}

func TestAccumulatorWordModeMatchesByteMode(t *testing.T) {
	words := []uint32{10, 20, 30}

	byAccum := NewAccumulator()
	for _, w := range words {
		byAccum.UpdateWord(w)
	}

	var flat []byte
	for _, w := range words {
		flat = append(flat, PutUint32(w)...)
	}

	require.Equal(t, CRC(flat), byAccum.Sum())
}

func TestAccumulatorBytesMode(t *testing.T) {
	a := NewAccumulator()
	a.UpdateBytes([]byte("hello"))
	a.UpdateBytes([]byte(" world"))
	require.Equal(t, CRC([]byte("hello world")), a.Sum())
}

package entryio

import (
	"errors"
	"fmt"
)

// ErrMalformed means the input bytes were too short or otherwise did
// not conform to the entry layout.
var ErrMalformed = errors.New("entryio: malformed entry bytes")

// ErrPayloadTooLarge means a payload exceeds the 48-bit length limit.
var ErrPayloadTooLarge = errors.New("entryio: payload exceeds 2^48-1 bytes")

// ErrDirectoryFull means a directory's child count would exceed
// MaxChildren.
var ErrDirectoryFull = errors.New("entryio: directory child count exceeds 65535")

// UnknownKindError is returned when a kind byte outside the closed set
// {0x01, 0x02, 0x03, 0x11} is encountered.
type UnknownKindError struct {
	Byte byte
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("entryio: unknown entry kind 0x%02x", e.Byte)
}

// CorruptError is returned when an entry's recomputed payload CRC does
// not match the CRC stored in its header.
type CorruptError struct {
	Handle Handle
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("entryio: entry %d failed CRC check", e.Handle)
}

// Package entryio is the shared entry codec: the byte layout described
// in spec §4.3 lives here once, so the in-memory engine and the
// streaming skimmer stay bit-exact with each other by construction.
package entryio

import "fmt"

// Handle identifies an entry within an archive. It is a signed 32-bit
// integer compared as a bit pattern at the format boundary (see
// Raw), but ordinary Go comparisons (==, map keys) work directly
// since Go's == on int32 already does the right thing bit-for-bit.
type Handle int32

// RootHandle is reserved for the root directory.
const RootHandle Handle = 0

// SentinelRaw is the reserved bit pattern that terminates the entry
// stream and must never be assigned to a real entry.
const SentinelRaw uint32 = 0xFEFEFEFE

// Raw returns h's underlying bit pattern for wide unsigned comparisons
// against SentinelRaw.
func (h Handle) Raw() uint32 {
	return uint32(h)
}

// IsSentinel reports whether h's bit pattern is the reserved sentinel.
func (h Handle) IsSentinel() bool {
	return h.Raw() == SentinelRaw
}

// Kind identifies the payload type of an entry.
type Kind uint8

const (
	KindFile           Kind = 0x01
	KindDirectory      Kind = 0x02
	KindSymlink        Kind = 0x03
	KindCompressedFile Kind = 0x11
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindCompressedFile:
		return "compressed_file"
	default:
		return fmt.Sprintf("kind(0x%02x)", uint8(k))
	}
}

// NameWidth is the fixed on-disk width of an entry's name field.
const NameWidth = 256

// MaxPayloadSize is the largest payload length the 48-bit length
// fields can represent (2^48 - 1).
const MaxPayloadSize = 1<<48 - 1

// MaxChildren is the largest number of children a directory's 16-bit
// count field can represent.
const MaxChildren = 65535

// Entry is the in-memory representation of one TEVD entry. Only the
// fields relevant to Kind are meaningful; the others are left zero.
type Entry struct {
	Handle Handle
	Parent Handle
	Kind   Kind
	Name   []byte // logical name, unpadded

	CreatedAt  uint64 // 48-bit seconds, epoch-agnostic
	ModifiedAt uint64

	// Data holds the payload for KindFile and KindCompressedFile.
	Data []byte

	// UncompressedSize is meaningful only for KindCompressedFile.
	UncompressedSize uint64

	// Children holds the ordered child handles for KindDirectory.
	Children []Handle

	// Target holds the link target for KindSymlink.
	Target Handle
}

// Clone returns a deep copy of e, so callers can mutate the original
// without aliasing the archive's own copy.
func (e *Entry) Clone() *Entry {
	clone := *e
	clone.Name = append([]byte(nil), e.Name...)
	clone.Data = append([]byte(nil), e.Data...)
	clone.Children = append([]Handle(nil), e.Children...)
	return &clone
}

package tevd

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tevd/tevd/internal/buffer"
	"github.com/tevd/tevd/internal/entryio"
	"github.com/tevd/tevd/internal/wire"
)

// Archive header and framing constants (spec §4.4).
const (
	Magic         = "TEVd"
	HeaderSize    = 47
	DiskNameWidth = 32
	SpecVersion   = 0x03
)

// EOFMark is the fixed two-byte terminator that closes every archive.
var EOFMark = [2]byte{0xFF, 0x19}

// Archive is the in-memory engine (spec §4.5): the whole entry tree
// held in a map, ready to be mutated directly and re-serialized.
type Archive struct {
	Capacity    uint64 // 48-bit byte count; 0 forces read-only
	DiskName    []byte // unpadded logical name
	FooterBytes []byte

	entries map[Handle]*Entry

	cfg *config
}

// NewArchive creates an empty archive with just the root directory,
// per invariant 1 (exactly one entry has handle 0, a directory with
// parent 0).
func NewArchive(capacity uint64, diskName string, opts ...Option) *Archive {
	a := &Archive{
		Capacity:    capacity,
		DiskName:    []byte(diskName),
		FooterBytes: []byte{0},
		entries:     make(map[Handle]*Entry),
		cfg:         applyOptions(opts),
	}
	a.entries[RootHandle] = NewDirectory(RootHandle, RootHandle, "", nil)
	return a
}

// Insert adds or replaces e in the archive's entry map, keyed by its
// handle. The archive owns entries only by handle; callers are
// responsible for keeping parent directory child lists consistent.
func (a *Archive) Insert(e *Entry) {
	a.entries[e.Handle] = e
}

// Remove deletes the entry with handle h, if present.
func (a *Archive) Remove(h Handle) {
	delete(a.entries, h)
}

// Get returns the entry with handle h.
func (a *Archive) Get(h Handle) (*Entry, bool) {
	e, ok := a.entries[h]
	return e, ok
}

// ChildrenOf returns the child handles of the directory at h, or nil if
// h does not exist or is not a directory.
func (a *Archive) ChildrenOf(h Handle) []Handle {
	e, ok := a.entries[h]
	if !ok || e.Kind != KindDirectory {
		return nil
	}
	return e.Children
}

// GenerateUniqueHandle draws a uniformly random signed 32-bit handle,
// rejecting it if it is already in use or equals the reserved sentinel
// (spec §4.4). The RNG is caller-seedable via WithRandSource.
func (a *Archive) GenerateUniqueHandle() Handle {
	for {
		raw := a.cfg.rng.Uint32()
		if raw == entryio.SentinelRaw {
			continue
		}
		h := Handle(raw)
		if _, exists := a.entries[h]; exists {
			continue
		}
		return h
	}
}

// ReadOnly reports whether the archive is read-only: capacity 0 forces
// it regardless of the footer flag; otherwise it is bit 0 of
// FooterBytes[0].
func (a *Archive) ReadOnly() bool {
	if a.Capacity == 0 {
		return true
	}
	if len(a.FooterBytes) == 0 {
		return false
	}
	return a.FooterBytes[0]&1 != 0
}

// SetReadOnly sets or clears the read-only flag in FooterBytes[0],
// leaving the remaining footer bits untouched.
func (a *Archive) SetReadOnly(readOnly bool) {
	if len(a.FooterBytes) == 0 {
		a.FooterBytes = []byte{0}
	}
	if readOnly {
		a.FooterBytes[0] |= 1
	} else {
		a.FooterBytes[0] &^= 1
	}
}

// UsedBytes returns the byte length Save would produce for the
// archive's current contents (invariant 6).
func (a *Archive) UsedBytes() (uint64, error) {
	total := uint64(HeaderSize)
	for _, e := range a.entries {
		sz, err := entryio.SerializedSize(e)
		if err != nil {
			return 0, wrapEntryErr(fmt.Sprintf("entry %d", e.Handle), err)
		}
		total += sz
	}
	total += 4 // footer sentinel
	total += uint64(len(a.FooterBytes))
	total += 2 // EOF mark
	return total, nil
}

// Load parses a complete archive from bytes (spec §4.5): verify magic,
// read the header, stream entries until the footer sentinel, then read
// footer_bytes up to the EOF mark. Per-entry and archive-level CRCs are
// checked; mismatches are reported, never silently tolerated.
func Load(data []byte, opts ...Option) (*Archive, error) {
	cfg := applyOptions(opts)

	if len(data) < HeaderSize {
		return nil, newError(ErrMalformedInput, "archive shorter than header", nil)
	}
	if string(data[0:4]) != Magic {
		return nil, newError(ErrBadMagic, "bad magic", nil)
	}

	capacity, _ := wire.Uint48(data[4:10])
	diskName := wire.UnpadName(data[10:42])
	archiveCRC, _ := wire.Uint32(data[42:46])
	// data[46] is the spec version byte; accepted as-is, not validated.

	a := &Archive{
		Capacity: capacity,
		DiskName: diskName,
		entries:  make(map[Handle]*Entry),
		cfg:      cfg,
	}

	cursor := HeaderSize
	for {
		if cursor+4 > len(data) {
			return nil, newError(ErrMalformedInput, "entry stream truncated before footer sentinel", nil)
		}
		raw, _ := wire.Uint32(data[cursor : cursor+4])
		if raw == entryio.SentinelRaw {
			cursor += 4
			break
		}

		r := bytes.NewReader(data[cursor:])
		before := r.Len()
		e, err := entryio.DecodeFrom(r)
		if err != nil {
			return nil, wrapEntryErr(fmt.Sprintf("entry at offset %d", cursor), err)
		}
		cursor += before - r.Len()
		a.entries[e.Handle] = e
	}

	if len(data) < cursor+2 {
		return nil, newError(ErrMalformedInput, "truncated footer", nil)
	}
	footerEnd := len(data) - 2
	if footerEnd < cursor || data[footerEnd] != EOFMark[0] || data[footerEnd+1] != EOFMark[1] {
		return nil, newError(ErrMalformedInput, "missing EOF mark", nil)
	}
	a.FooterBytes = append([]byte{}, data[cursor:footerEnd]...)

	recomputed, err := a.computeArchiveCRC()
	if err != nil {
		return nil, err
	}
	if recomputed != archiveCRC {
		return nil, newError(ErrArchiveCorrupt, "archive crc mismatch", nil)
	}

	a.cfg.logger.Debug("archive loaded", "entries", len(a.entries), "bytes", len(data))
	return a, nil
}

// Save re-serializes the whole archive: header, all entries back to
// back in handle order, footer sentinel, FooterBytes, and the EOF mark.
func (a *Archive) Save() ([]byte, error) {
	handles := a.sortedHandles()

	encoded := make(map[Handle][]byte, len(handles))
	for _, h := range handles {
		enc, err := entryio.Encode(a.entries[h])
		if err != nil {
			return nil, wrapEntryErr(fmt.Sprintf("entry %d", h), err)
		}
		encoded[h] = enc
	}

	archiveCRC, err := a.computeArchiveCRC()
	if err != nil {
		return nil, err
	}

	out := buffer.New(uint64(HeaderSize))
	out.Append([]byte(Magic))
	out.Append(wire.PutUint48(a.Capacity))
	out.Append(wire.PadName(a.DiskName, DiskNameWidth))
	out.Append(wire.PutUint32(archiveCRC))
	out.AppendByte(SpecVersion)

	for _, h := range handles {
		out.Append(encoded[h])
	}

	out.Append(wire.PutUint32(entryio.SentinelRaw))
	out.Append(a.FooterBytes)
	out.Append(EOFMark[:])

	a.cfg.logger.Debug("archive serialized", "entries", len(handles), "bytes", out.Len())
	return out.Bytes(), nil
}

// computeArchiveCRC implements spec §4.4's archive CRC: collect each
// entry's CRC, sort ascending, and feed them as big-endian 32-bit words
// into a fresh accumulator. This is order-independent across entry
// maps (invariant 3).
func (a *Archive) computeArchiveCRC() (uint32, error) {
	crcs := make([]uint32, 0, len(a.entries))
	for _, e := range a.entries {
		crc, err := entryio.PayloadCRC(e)
		if err != nil {
			return 0, wrapEntryErr(fmt.Sprintf("entry %d", e.Handle), err)
		}
		crcs = append(crcs, crc)
	}
	sort.Slice(crcs, func(i, j int) bool { return crcs[i] < crcs[j] })

	buf := buffer.New(uint64(len(crcs) * 4))
	for _, c := range crcs {
		buf.Append(wire.PutUint32(c))
	}

	acc := wire.NewAccumulator()
	buf.IterateWords32(acc.UpdateWord)
	return acc.Sum(), nil
}

// sortedHandles orders handles by their unsigned bit pattern (spec §9:
// "use unsigned wide comparisons internally and signed only at the
// boundary"), so Save's entry order is independent of handles with a
// negative int32 bit pattern and matches Delete's surviving-entry order
// for the same archive.
func (a *Archive) sortedHandles() []Handle {
	handles := make([]Handle, 0, len(a.entries))
	for h := range a.entries {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Raw() < handles[j].Raw() })
	return handles
}

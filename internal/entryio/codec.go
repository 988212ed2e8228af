package entryio

import (
	"io"

	"github.com/tevd/tevd/internal/wire"
)

// HeaderSize is the fixed 281-byte entry header (spec §4.3).
const HeaderSize = 281

const (
	offHandle     = 0
	offParent     = 4
	offKind       = 8
	offName       = 9
	offCreatedAt  = offName + NameWidth // 265
	offModifiedAt = offCreatedAt + 6    // 271
	offCRC        = offModifiedAt + 6   // 277
)

// Encode serializes e to its full on-disk representation (header plus
// payload), computing and filling in the entry CRC.
func Encode(e *Entry) ([]byte, error) {
	payload, err := encodePayload(e)
	if err != nil {
		return nil, err
	}

	header := make([]byte, HeaderSize)
	copy(header[offHandle:], wire.PutUint32(e.Handle.Raw()))
	copy(header[offParent:], wire.PutUint32(e.Parent.Raw()))
	header[offKind] = byte(e.Kind)
	copy(header[offName:], wire.PadName(e.Name, NameWidth))
	copy(header[offCreatedAt:], wire.PutUint48(e.CreatedAt))
	copy(header[offModifiedAt:], wire.PutUint48(e.ModifiedAt))
	copy(header[offCRC:], wire.PutUint32(wire.CRC(payload)))

	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out, nil
}

// SerializedSize returns the total byte length Encode would produce
// for e, without allocating the payload bytes for files twice.
func SerializedSize(e *Entry) (uint64, error) {
	switch e.Kind {
	case KindFile:
		if uint64(len(e.Data)) > MaxPayloadSize {
			return 0, ErrPayloadTooLarge
		}
		return uint64(HeaderSize+6) + uint64(len(e.Data)), nil
	case KindCompressedFile:
		if uint64(len(e.Data)) > MaxPayloadSize {
			return 0, ErrPayloadTooLarge
		}
		return uint64(HeaderSize+12) + uint64(len(e.Data)), nil
	case KindDirectory:
		if len(e.Children) > MaxChildren {
			return 0, ErrDirectoryFull
		}
		return uint64(HeaderSize+2) + 4*uint64(len(e.Children)), nil
	case KindSymlink:
		return uint64(HeaderSize + 4), nil
	default:
		return 0, &UnknownKindError{Byte: byte(e.Kind)}
	}
}

func encodePayload(e *Entry) ([]byte, error) {
	switch e.Kind {
	case KindFile:
		if uint64(len(e.Data)) > MaxPayloadSize {
			return nil, ErrPayloadTooLarge
		}
		buf := wire.PutUint48(uint64(len(e.Data)))
		return append(buf, e.Data...), nil

	case KindCompressedFile:
		if uint64(len(e.Data)) > MaxPayloadSize {
			return nil, ErrPayloadTooLarge
		}
		buf := wire.PutUint48(uint64(len(e.Data)))
		buf = append(buf, wire.PutUint48(e.UncompressedSize)...)
		return append(buf, e.Data...), nil

	case KindDirectory:
		if len(e.Children) > MaxChildren {
			return nil, ErrDirectoryFull
		}
		buf := wire.PutUint16(uint16(len(e.Children)))
		for _, c := range e.Children {
			buf = append(buf, wire.PutUint32(c.Raw())...)
		}
		return buf, nil

	case KindSymlink:
		return wire.PutUint32(e.Target.Raw()), nil

	default:
		return nil, &UnknownKindError{Byte: byte(e.Kind)}
	}
}

// PayloadCRC returns the CRC-32 of e's serialized payload region, the
// same value Encode stores in the entry header's CRC field. Used by
// the archive-level CRC, which is computed over per-entry CRCs rather
// than re-deriving them from a full Encode.
func PayloadCRC(e *Entry) (uint32, error) {
	payload, err := encodePayload(e)
	if err != nil {
		return 0, err
	}
	return wire.CRC(payload), nil
}

// DecodeFrom reads one full entry (header and payload) from r and
// verifies its CRC. r must be positioned at the start of the entry's
// header.
func DecodeFrom(r io.Reader) (*Entry, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, wrapShort(err)
	}

	handleRaw, _ := wire.Uint32(header[offHandle:])
	parentRaw, _ := wire.Uint32(header[offParent:])
	kind := Kind(header[offKind])
	name := wire.UnpadName(header[offName : offName+NameWidth])
	createdAt, _ := wire.Uint48(header[offCreatedAt:])
	modifiedAt, _ := wire.Uint48(header[offModifiedAt:])
	headerCRC, _ := wire.Uint32(header[offCRC:])

	e := &Entry{
		Handle:     Handle(handleRaw),
		Parent:     Handle(parentRaw),
		Kind:       kind,
		Name:       name,
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
	}

	payload, err := decodePayload(r, e)
	if err != nil {
		return nil, err
	}

	if wire.CRC(payload) != headerCRC {
		return nil, &CorruptError{Handle: e.Handle}
	}

	return e, nil
}

func decodePayload(r io.Reader, e *Entry) ([]byte, error) {
	switch e.Kind {
	case KindFile:
		lenBuf := make([]byte, 6)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return nil, wrapShort(err)
		}
		n, _ := wire.Uint48(lenBuf)
		data := make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, wrapShort(err)
		}
		e.Data = data
		return append(append([]byte{}, lenBuf...), data...), nil

	case KindCompressedFile:
		prefix := make([]byte, 12)
		if _, err := io.ReadFull(r, prefix); err != nil {
			return nil, wrapShort(err)
		}
		storedLen, _ := wire.Uint48(prefix[:6])
		uncompressedLen, _ := wire.Uint48(prefix[6:])
		data := make([]byte, storedLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, wrapShort(err)
		}
		e.Data = data
		e.UncompressedSize = uncompressedLen
		return append(append([]byte{}, prefix...), data...), nil

	case KindDirectory:
		countBuf := make([]byte, 2)
		if _, err := io.ReadFull(r, countBuf); err != nil {
			return nil, wrapShort(err)
		}
		count, _ := wire.Uint16(countBuf)
		childBytes := make([]byte, 4*int(count))
		if _, err := io.ReadFull(r, childBytes); err != nil {
			return nil, wrapShort(err)
		}
		children := make([]Handle, count)
		for i := range children {
			raw, _ := wire.Uint32(childBytes[4*i:])
			children[i] = Handle(raw)
		}
		e.Children = children
		return append(append([]byte{}, countBuf...), childBytes...), nil

	case KindSymlink:
		targetBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, targetBuf); err != nil {
			return nil, wrapShort(err)
		}
		raw, _ := wire.Uint32(targetBuf)
		e.Target = Handle(raw)
		return targetBuf, nil

	default:
		return nil, &UnknownKindError{Byte: byte(e.Kind)}
	}
}

func wrapShort(err error) error {
	if err == nil {
		return nil
	}
	return ErrMalformed
}

// BlockSizeAt computes an entry's total serialized size (header plus
// payload) from its kind-specific size prefix alone, without
// materializing the payload. r must support reads at absolute offsets;
// offset is where the entry's 4-byte handle field begins.
func BlockSizeAt(r io.ReaderAt, offset int64) (uint64, error) {
	var kindByte [1]byte
	if _, err := r.ReadAt(kindByte[:], offset+offKind); err != nil {
		return 0, wrapShort(err)
	}
	kind := Kind(kindByte[0])

	payloadStart := offset + HeaderSize

	switch kind {
	case KindFile:
		lenBuf := make([]byte, 6)
		if _, err := r.ReadAt(lenBuf, payloadStart); err != nil {
			return 0, wrapShort(err)
		}
		n, _ := wire.Uint48(lenBuf)
		return uint64(HeaderSize+6) + n, nil

	case KindCompressedFile:
		lenBuf := make([]byte, 6)
		if _, err := r.ReadAt(lenBuf, payloadStart); err != nil {
			return 0, wrapShort(err)
		}
		n, _ := wire.Uint48(lenBuf)
		return uint64(HeaderSize+12) + n, nil

	case KindDirectory:
		countBuf := make([]byte, 2)
		if _, err := r.ReadAt(countBuf, payloadStart); err != nil {
			return 0, wrapShort(err)
		}
		count, _ := wire.Uint16(countBuf)
		return uint64(HeaderSize+2) + 4*uint64(count), nil

	case KindSymlink:
		return uint64(HeaderSize + 4), nil

	default:
		return 0, &UnknownKindError{Byte: kindByte[0]}
	}
}

// Package tevd implements the TEVD virtual disk archive format: a
// single-file container embedding a filesystem-like tree of files,
// directories, and symlinks, each identified by a stable 32-bit
// handle. It provides both an in-memory engine (Archive) for whole-file
// load/mutate/save, and a streaming engine (Skimmer) for targeted
// reads, appends, and deletions against an archive on disk.
package tevd

import "github.com/tevd/tevd/internal/entryio"

// Handle identifies an entry within an archive. Handle 0 is reserved
// for the root directory; 0xFEFEFEFE is reserved as the footer
// sentinel and is never assigned to a real entry.
type Handle = entryio.Handle

// RootHandle is the handle of the always-present root directory.
const RootHandle = entryio.RootHandle

// Kind identifies the payload type of an entry.
type Kind = entryio.Kind

const (
	KindFile           = entryio.KindFile
	KindDirectory      = entryio.KindDirectory
	KindSymlink        = entryio.KindSymlink
	KindCompressedFile = entryio.KindCompressedFile
)

// NameWidth is the fixed on-disk width of an entry's name field.
const NameWidth = entryio.NameWidth

// MaxPayloadSize is the largest payload length representable by the
// format's 48-bit length fields.
const MaxPayloadSize = entryio.MaxPayloadSize

// MaxChildren is the largest number of children a directory can hold.
const MaxChildren = entryio.MaxChildren

// Entry is a single node in an archive's tree: a file, compressed
// file, directory, or symlink. Only the fields relevant to Kind carry
// meaningful data.
type Entry = entryio.Entry

// NewFile builds a KindFile entry.
func NewFile(handle, parent Handle, name string, data []byte) *Entry {
	return &Entry{
		Handle: handle,
		Parent: parent,
		Kind:   KindFile,
		Name:   []byte(name),
		Data:   data,
	}
}

// NewCompressedFile builds a KindCompressedFile entry. data is the
// already-compressed payload; uncompressedSize is recorded but not
// interpreted by the core.
func NewCompressedFile(handle, parent Handle, name string, data []byte, uncompressedSize uint64) *Entry {
	return &Entry{
		Handle:           handle,
		Parent:           parent,
		Kind:             KindCompressedFile,
		Name:             []byte(name),
		Data:             data,
		UncompressedSize: uncompressedSize,
	}
}

// NewDirectory builds a KindDirectory entry with the given children.
func NewDirectory(handle, parent Handle, name string, children []Handle) *Entry {
	return &Entry{
		Handle:   handle,
		Parent:   parent,
		Kind:     KindDirectory,
		Name:     []byte(name),
		Children: children,
	}
}

// NewSymlink builds a KindSymlink entry pointing at target.
func NewSymlink(handle, parent Handle, name string, target Handle) *Entry {
	return &Entry{
		Handle: handle,
		Parent: parent,
		Kind:   KindSymlink,
		Name:   []byte(name),
		Target: target,
	}
}

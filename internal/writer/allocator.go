// Package writer provides the skimmer's temp-file write path: a
// sequential, end-of-file block allocator plus a thin file wrapper,
// used while building the replacement file for an Append, Delete, or
// CreatePath commit (spec §4.6-4.7).
//
// The allocator never reuses freed space: every commit writes a full
// replacement file from scratch, so allocation is always sequential
// and overlap is a bug, not a design tradeoff.
package writer

import (
	"fmt"
	"sort"
)

// AllocatedBlock tracks a contiguous region of the file that has
// already been claimed, so ValidateNoOverlaps can detect a bug in the
// caller's allocation sequence.
type AllocatedBlock struct {
	Offset uint64
	Size   uint64
}

// Allocator hands out sequential end-of-file regions for a
// replacement archive file being built by a FileWriter. It never
// reuses freed space and enforces no alignment; the only invariant it
// guarantees is that allocated blocks never overlap, checked on
// demand by ValidateNoOverlaps rather than on every call.
//
// Not safe for concurrent use; a FileWriter owns one allocator and
// drives it from a single goroutine.
type Allocator struct {
	blocks     []AllocatedBlock
	nextOffset uint64
}

// NewAllocator creates a space allocator starting at initialOffset.
//
// The skimmer seeds this at 0 when rebuilding the whole file (Delete)
// or at the length of the copied prefix when only appending (Append),
// so that the first Allocate call lands exactly where the caller's
// preceding raw write left off.
//
// Example:
//
//	alloc := NewAllocator(47) // start right after the archive header
//	addr, err := alloc.Allocate(1024)
//	if err != nil {
//	    return err
//	}
func NewAllocator(initialOffset uint64) *Allocator {
	return &Allocator{
		blocks:     make([]AllocatedBlock, 0, 16),
		nextOffset: initialOffset,
	}
}

// Allocate reserves a block of space at the end of the file and
// returns its starting address. This is the primary method for
// placing a serialized entry, the archive header, or the footer
// framing while building a replacement file.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("cannot allocate zero bytes")
	}

	addr := a.nextOffset
	a.blocks = append(a.blocks, AllocatedBlock{Offset: addr, Size: size})
	a.nextOffset = addr + size

	return addr, nil
}

// EndOfFile returns the current end-of-file address: where the next
// allocation would land, and the total size of everything allocated
// so far.
func (a *Allocator) EndOfFile() uint64 {
	return a.nextOffset
}

// Blocks returns a copy of all allocated blocks, sorted by offset. The
// returned slice can be mutated freely without affecting the
// allocator's internal state.
func (a *Allocator) Blocks() []AllocatedBlock {
	blocks := make([]AllocatedBlock, len(a.blocks))
	copy(blocks, a.blocks)

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})

	return blocks
}

// ValidateNoOverlaps checks that no allocated blocks overlap. With
// correct end-of-file allocation this can never fail; it exists to
// catch a regression in the allocation sequence before a commit is
// applied.
func (a *Allocator) ValidateNoOverlaps() error {
	blocks := a.Blocks()

	for i := 0; i < len(blocks)-1; i++ {
		current := blocks[i]
		next := blocks[i+1]

		if current.Offset+current.Size > next.Offset {
			return fmt.Errorf("overlap detected: block at %d (size %d) overlaps block at %d",
				current.Offset, current.Size, next.Offset)
		}
	}

	return nil
}

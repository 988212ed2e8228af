package writer

import (
	"fmt"
	"io"
	"os"
)

// FileWriter wraps an os.File for writing a skimmer replacement file:
// allocation tracking via an Allocator, write-at-address operations,
// end-of-file tracking, and flush control.
//
// Not safe for concurrent use.
type FileWriter struct {
	file      *os.File
	allocator *Allocator
}

// NewFileWriter creates and truncates filename, returning a writer
// whose allocator starts at initialOffset (0 when the caller is about
// to write the archive header itself, or the length of an
// already-copied prefix when the caller only appends after it).
func NewFileWriter(filename string, initialOffset uint64) (*FileWriter, error) {
	osFile, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &FileWriter{
		file:      osFile,
		allocator: NewAllocator(initialOffset),
	}, nil
}

// Allocate reserves a block of space in the file and returns the
// address where it starts. The space is not zeroed; the caller must
// write data to it with WriteAtAddress.
func (w *FileWriter) Allocate(size uint64) (uint64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}

	return w.allocator.Allocate(size)
}

// WriteAt writes data at a specific address in the file. It does not
// itself track the write as an allocation; pair it with Allocate.
func (w *FileWriter) WriteAt(data []byte, offset int64) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}

	if len(data) == 0 {
		return 0, nil
	}

	n, err := w.file.WriteAt(data, offset)
	if err != nil {
		return n, fmt.Errorf("write at address %d failed: %w", offset, err)
	}

	if n != len(data) {
		return n, fmt.Errorf("incomplete write at address %d: wrote %d of %d bytes", offset, n, len(data))
	}

	return n, nil
}

// WriteAtAddress writes data at addr, a convenience wrapper over
// WriteAt for addresses returned by Allocate.
func (w *FileWriter) WriteAtAddress(data []byte, addr uint64) error {
	_, err := w.WriteAt(data, int64(addr))
	return err
}

// EndOfFile returns the current end-of-file address: where the next
// allocation would occur.
func (w *FileWriter) EndOfFile() uint64 {
	return w.allocator.EndOfFile()
}

// Flush commits all writes to disk. Call before Close when durability
// matters.
func (w *FileWriter) Flush() error {
	if w.file == nil {
		return fmt.Errorf("writer is closed")
	}

	return w.file.Sync()
}

// Close closes the underlying file. It does not flush; call Flush
// first if needed. After Close the writer cannot be used.
func (w *FileWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	return err
}

// Allocator returns the space allocator, so callers can validate its
// state (ValidateNoOverlaps) after a write sequence completes.
func (w *FileWriter) Allocator() *Allocator {
	return w.allocator
}

// Ensure FileWriter implements io.WriterAt.
var _ io.WriterAt = (*FileWriter)(nil)

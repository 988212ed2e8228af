package tevd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tevd/tevd/internal/commit"
	"github.com/tevd/tevd/internal/entryio"
	"github.com/tevd/tevd/internal/utils"
	"github.com/tevd/tevd/internal/writer"
)

// Append writes entries onto the archive in a single temp-file commit:
// the existing bytes up to the footer sentinel are copied verbatim,
// each new entry is serialized after them, and the original footer
// framing is carried over unchanged. A handle already present in the
// index is simply shadowed by the newer occurrence; the stale bytes
// are never read again but are not reclaimed until a future delete.
//
// Placement within the temp file is tracked with a writer.Allocator
// seeded at the copied prefix's length, so each entry lands directly
// after the previous one with no gaps.
func (s *Skimmer) Append(entries []*Entry) (bool, error) {
	if len(entries) == 0 {
		return true, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return false, newError(ErrIoFailure, "open archive", err)
	}

	prefix := utils.GetBuffer(int(s.footerPosition))
	if _, err := io.ReadFull(f, prefix); err != nil {
		utils.ReleaseBuffer(prefix)
		f.Close()
		return false, newError(ErrIoFailure, "read existing archive body", err)
	}
	footerFraming, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		utils.ReleaseBuffer(prefix)
		return false, newError(ErrIoFailure, "read footer framing", err)
	}

	paths := commit.PathsFor(s.path)
	fw, err := writer.NewFileWriter(paths.Temp, uint64(s.footerPosition))
	if err != nil {
		utils.ReleaseBuffer(prefix)
		return false, newError(ErrIoFailure, "create temp file", err)
	}

	newOffsets := make(map[Handle]int64, len(entries))

	writeErr := func() error {
		if err := fw.WriteAtAddress(prefix, 0); err != nil {
			return err
		}
		for _, e := range entries {
			enc, eerr := entryio.Encode(e)
			if eerr != nil {
				return wrapEntryErr(fmt.Sprintf("entry %d", e.Handle), eerr)
			}
			addr, aerr := fw.Allocate(uint64(len(enc)))
			if aerr != nil {
				return aerr
			}
			newOffsets[e.Handle] = int64(addr)
			if err := fw.WriteAtAddress(enc, addr); err != nil {
				return err
			}
		}
		footerAddr, aerr := fw.Allocate(uint64(len(footerFraming)))
		if aerr != nil {
			return aerr
		}
		if err := fw.WriteAtAddress(footerFraming, footerAddr); err != nil {
			return err
		}
		return fw.Flush()
	}()

	utils.ReleaseBuffer(prefix)
	if writeErr == nil {
		if verr := fw.Allocator().ValidateNoOverlaps(); verr != nil {
			writeErr = verr
		}
	}

	newFooterPos := int64(fw.EndOfFile()) - int64(len(footerFraming))
	fw.Close()
	if writeErr != nil {
		os.Remove(paths.Temp)
		return false, classifyMutationErr("append", writeErr)
	}

	if err := commit.Apply(paths, nil, s.cfg.logger); err != nil {
		return false, wrapCommitErr("append", err)
	}

	for h, off := range newOffsets {
		s.entryToOffset[h] = off
	}
	s.footerPosition = newFooterPos

	return true, nil
}

// Delete rewrites the archive without the given handles: header, then
// root (always kept), then every other surviving entry in handle
// order, then the original footer framing. The root handle is never
// removable even if present in handles.
func (s *Skimmer) Delete(handles []Handle) (bool, error) {
	toDelete := make(map[Handle]bool, len(handles))
	for _, h := range handles {
		if h == RootHandle {
			continue
		}
		toDelete[h] = true
	}

	f, err := os.Open(s.path)
	if err != nil {
		return false, newError(ErrIoFailure, "open archive", err)
	}
	defer f.Close()

	header := utils.GetBuffer(HeaderSize)
	defer utils.ReleaseBuffer(header)
	if _, err := f.ReadAt(header, 0); err != nil {
		return false, newError(ErrIoFailure, "read archive header", err)
	}

	if _, err := f.Seek(s.footerPosition, io.SeekStart); err != nil {
		return false, newError(ErrIoFailure, "seek to footer", err)
	}
	footerFraming, err := io.ReadAll(f)
	if err != nil {
		return false, newError(ErrIoFailure, "read footer framing", err)
	}

	rootOffset, ok := s.entryToOffset[RootHandle]
	if !ok {
		return false, newError(ErrIoFailure, "missing root entry", nil)
	}
	rootSize, err := entryio.BlockSizeAt(f, rootOffset)
	if err != nil {
		return false, wrapEntryErr("root entry", err)
	}
	rootBytes := utils.GetBuffer(int(rootSize))
	defer utils.ReleaseBuffer(rootBytes)
	if _, err := f.ReadAt(rootBytes, rootOffset); err != nil {
		return false, newError(ErrIoFailure, "read root entry", err)
	}

	order := make([]Handle, 0, len(s.entryToOffset))
	for h := range s.entryToOffset {
		if h == RootHandle {
			continue
		}
		order = append(order, h)
	}
	// Sort by unsigned bit pattern, matching Save's sortedHandles (spec
	// §9), so the two engines stay byte-identical for handles with a
	// negative int32 bit pattern (e.g. the §8 boundary handles adjacent
	// to the reserved sentinel).
	sort.Slice(order, func(i, j int) bool { return order[i].Raw() < order[j].Raw() })

	paths := commit.PathsFor(s.path)
	fw, err := writer.NewFileWriter(paths.Temp, 0)
	if err != nil {
		return false, newError(ErrIoFailure, "create temp file", err)
	}

	newOffsets := make(map[Handle]int64, len(order)+1)

	writeErr := func() error {
		headerAddr, aerr := fw.Allocate(uint64(len(header)))
		if aerr != nil {
			return aerr
		}
		if err := fw.WriteAtAddress(header, headerAddr); err != nil {
			return err
		}

		rootAddr, aerr := fw.Allocate(uint64(len(rootBytes)))
		if aerr != nil {
			return aerr
		}
		newOffsets[RootHandle] = int64(rootAddr)
		if err := fw.WriteAtAddress(rootBytes, rootAddr); err != nil {
			return err
		}

		for _, h := range order {
			if toDelete[h] {
				continue
			}
			off := s.entryToOffset[h]
			size, serr := entryio.BlockSizeAt(f, off)
			if serr != nil {
				return wrapEntryErr(fmt.Sprintf("entry %d", h), serr)
			}
			buf := utils.GetBuffer(int(size))
			if _, err := f.ReadAt(buf, off); err != nil {
				utils.ReleaseBuffer(buf)
				return err
			}
			addr, aerr := fw.Allocate(size)
			if aerr != nil {
				utils.ReleaseBuffer(buf)
				return aerr
			}
			newOffsets[h] = int64(addr)
			werr := fw.WriteAtAddress(buf, addr)
			utils.ReleaseBuffer(buf)
			if werr != nil {
				return werr
			}
		}

		footerAddr, aerr := fw.Allocate(uint64(len(footerFraming)))
		if aerr != nil {
			return aerr
		}
		if err := fw.WriteAtAddress(footerFraming, footerAddr); err != nil {
			return err
		}
		return fw.Flush()
	}()

	if writeErr == nil {
		if verr := fw.Allocator().ValidateNoOverlaps(); verr != nil {
			writeErr = verr
		}
	}

	newFooterPos := int64(fw.EndOfFile()) - int64(len(footerFraming))
	fw.Close()
	if writeErr != nil {
		os.Remove(paths.Temp)
		return false, classifyMutationErr("delete", writeErr)
	}

	if err := commit.Apply(paths, nil, s.cfg.logger); err != nil {
		return false, wrapCommitErr("delete", err)
	}

	s.entryToOffset = newOffsets
	s.footerPosition = newFooterPos

	return true, nil
}

// CreatePath resolves path against the archive's directory tree,
// creating whatever directories and the terminal file are missing. If
// the full path already exists and overwrite is false, it fails with
// AlreadyExists; if overwrite is true, the existing entry's payload is
// replaced via delete-then-append. Otherwise the missing suffix is
// built as a chain of new directories terminating in a file, and
// committed with the updated append-point directory in a single
// Append call.
func (s *Skimmer) CreatePath(path string, data []byte, overwrite bool) (Handle, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return 0, newError(ErrMalformedInput, "empty path", nil)
	}

	appendPoint, remaining, full, err := s.walkPath(segments)
	if err != nil {
		return 0, err
	}

	if len(remaining) == 0 {
		if !overwrite {
			return 0, newError(ErrAlreadyExists, path, nil)
		}
		replacement := NewFile(full.Handle, full.Parent, string(full.Name), data)
		if ok, derr := s.Delete([]Handle{full.Handle}); derr != nil {
			return 0, derr
		} else if !ok {
			return 0, newError(ErrIoFailure, "delete before overwrite", nil)
		}
		if _, aerr := s.Append([]*Entry{replacement}); aerr != nil {
			return 0, aerr
		}
		return full.Handle, nil
	}

	parentEntry, ferr := s.Fetch(appendPoint)
	if ferr != nil {
		return 0, ferr
	}
	if parentEntry == nil {
		return 0, newError(ErrIoFailure, "missing append-point directory", nil)
	}

	handles := s.generateHandles(len(remaining))

	batch := make([]*Entry, 0, len(remaining)+1)

	updatedParent := parentEntry.Clone()
	updatedParent.Children = append(updatedParent.Children, handles[0])
	batch = append(batch, updatedParent)

	for i, seg := range remaining {
		parent := appendPoint
		if i > 0 {
			parent = handles[i-1]
		}
		if i == len(remaining)-1 {
			batch = append(batch, NewFile(handles[i], parent, seg, data))
		} else {
			batch = append(batch, NewDirectory(handles[i], parent, seg, []Handle{handles[i+1]}))
		}
	}

	if _, aerr := s.Append(batch); aerr != nil {
		return 0, aerr
	}
	return handles[len(handles)-1], nil
}

func classifyMutationErr(context string, err error) error {
	var tevdErr *Error
	if errors.As(err, &tevdErr) {
		return err
	}
	return newError(ErrIoFailure, context, err)
}

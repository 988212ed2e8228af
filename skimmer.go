package tevd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tevd/tevd/internal/entryio"
	"github.com/tevd/tevd/internal/wire"
)

// Skimmer is the streaming engine (spec §4.6): it opens the archive
// file only for the duration of each call, keeping just a handle→offset
// index and the footer's position in memory between calls.
type Skimmer struct {
	path string

	entryToOffset  map[Handle]int64
	footerPosition int64

	cfg *config
}

// Open builds a Skimmer's index by scanning path once: verify magic,
// then walk the entry stream recording each handle's header offset
// until the footer sentinel is reached.
func Open(path string, opts ...Option) (*Skimmer, error) {
	s := &Skimmer{path: path, cfg: applyOptions(opts)}
	if err := s.buildIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Skimmer) buildIndex() error {
	f, err := os.Open(s.path)
	if err != nil {
		return newError(ErrIoFailure, "open archive", err)
	}
	defer f.Close()

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return newError(ErrMalformedInput, "archive header truncated", err)
	}
	if string(header[0:4]) != Magic {
		return newError(ErrBadMagic, "bad magic", nil)
	}

	entryToOffset := make(map[Handle]int64)
	cursor := int64(HeaderSize)
	for {
		var handleBuf [4]byte
		if _, err := f.ReadAt(handleBuf[:], cursor); err != nil {
			return newError(ErrMalformedInput, "entry stream truncated before footer sentinel", err)
		}
		raw, _ := wire.Uint32(handleBuf[:])
		if raw == entryio.SentinelRaw {
			s.entryToOffset = entryToOffset
			s.footerPosition = cursor
			s.cfg.logger.Debug("skim index built", "entries", len(entryToOffset), "footer", cursor)
			return nil
		}

		entryToOffset[Handle(raw)] = cursor
		blockSize, err := entryio.BlockSizeAt(f, cursor)
		if err != nil {
			return wrapEntryErr(fmt.Sprintf("entry at offset %d", cursor), err)
		}
		cursor += int64(blockSize)
	}
}

// Fetch materializes the entry at handle, or returns (nil, nil) if no
// such handle is indexed. It opens and closes the file on every call.
func (s *Skimmer) Fetch(handle Handle) (*Entry, error) {
	offset, ok := s.entryToOffset[handle]
	if !ok {
		return nil, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, newError(ErrIoFailure, "open archive", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, newError(ErrIoFailure, "seek to entry", err)
	}

	e, err := entryio.DecodeFrom(f)
	if err != nil {
		return nil, wrapEntryErr(fmt.Sprintf("entry at offset %d", offset), err)
	}
	return e, nil
}

// splitPath breaks a path on '/' or '\', discarding empty segments so
// leading/trailing/doubled separators are harmless.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
}

// walkPath follows segments from the root, matching each against an
// existing child's unpadded name. It returns the handle of the last
// entry matched (the deepest directory reached, or the full path's own
// entry when it exists), the suffix of segments that does not yet
// exist, and (when the full path already exists) the matched entry
// itself.
func (s *Skimmer) walkPath(segments []string) (matched Handle, remaining []string, full *Entry, err error) {
	current := RootHandle
	for i, seg := range segments {
		dir, ferr := s.Fetch(current)
		if ferr != nil {
			return 0, nil, nil, ferr
		}
		if dir == nil {
			return 0, nil, nil, newError(ErrIoFailure, "missing directory entry during path walk", nil)
		}
		if dir.Kind != KindDirectory {
			return 0, nil, nil, newError(ErrNotADirectory, fmt.Sprintf("path segment %q", seg), nil)
		}

		next, found, cerr := s.findChildByName(dir, seg)
		if cerr != nil {
			return 0, nil, nil, cerr
		}
		if !found {
			return current, segments[i:], nil, nil
		}
		current = next
	}

	full, ferr := s.Fetch(current)
	if ferr != nil {
		return 0, nil, nil, ferr
	}
	return current, nil, full, nil
}

func (s *Skimmer) findChildByName(dir *Entry, name string) (Handle, bool, error) {
	for _, child := range dir.Children {
		e, err := s.Fetch(child)
		if err != nil {
			return 0, false, err
		}
		if e != nil && string(e.Name) == name {
			return child, true, nil
		}
	}
	return 0, false, nil
}

// generateHandles draws n unique handles that collide with neither the
// live index nor each other, using rejection sampling per spec §4.4.
func (s *Skimmer) generateHandles(n int) []Handle {
	reserved := make(map[Handle]bool, n)
	out := make([]Handle, n)
	for i := 0; i < n; i++ {
		for {
			raw := s.cfg.rng.Uint32()
			if raw == entryio.SentinelRaw {
				continue
			}
			h := Handle(raw)
			if _, exists := s.entryToOffset[h]; exists {
				continue
			}
			if reserved[h] {
				continue
			}
			reserved[h] = true
			out[i] = h
			break
		}
	}
	return out
}

package tevd

import (
	"errors"
	"fmt"

	"github.com/tevd/tevd/internal/commit"
	"github.com/tevd/tevd/internal/entryio"
)

// ErrorKind classifies a tevd.Error per spec §7's error taxonomy.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrMalformedInput
	ErrBadMagic
	ErrArchiveCorrupt
	ErrEntryCorrupt
	ErrUnknownEntryKind
	ErrDirectoryFull
	ErrPayloadTooLarge
	ErrAlreadyExists
	ErrNotADirectory
	ErrIoFailure
	ErrCommitFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedInput:
		return "malformed_input"
	case ErrBadMagic:
		return "bad_magic"
	case ErrArchiveCorrupt:
		return "archive_corrupt"
	case ErrEntryCorrupt:
		return "entry_corrupt"
	case ErrUnknownEntryKind:
		return "unknown_entry_kind"
	case ErrDirectoryFull:
		return "directory_full"
	case ErrPayloadTooLarge:
		return "payload_too_large"
	case ErrAlreadyExists:
		return "already_exists"
	case ErrNotADirectory:
		return "not_a_directory"
	case ErrIoFailure:
		return "io_failure"
	case ErrCommitFailed:
		return "commit_failed"
	default:
		return "unknown"
	}
}

// Error is TEVD's structured error type. It always carries a Kind from
// the §7 taxonomy; Handle and Byte are populated only for the kinds
// that need them (EntryCorrupt, UnknownEntryKind).
type Error struct {
	Kind    ErrorKind
	Handle  Handle
	Byte    byte
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// wrapEntryErr classifies an error surfaced by internal/entryio during
// load or skim into the matching §7 kind.
func wrapEntryErr(context string, err error) error {
	if err == nil {
		return nil
	}

	var unknownKind *entryio.UnknownKindError
	if errors.As(err, &unknownKind) {
		return &Error{Kind: ErrUnknownEntryKind, Byte: unknownKind.Byte, Context: context, Cause: err}
	}

	var corrupt *entryio.CorruptError
	if errors.As(err, &corrupt) {
		return &Error{Kind: ErrEntryCorrupt, Handle: Handle(corrupt.Handle), Context: context, Cause: err}
	}

	switch {
	case errors.Is(err, entryio.ErrPayloadTooLarge):
		return newError(ErrPayloadTooLarge, context, err)
	case errors.Is(err, entryio.ErrDirectoryFull):
		return newError(ErrDirectoryFull, context, err)
	case errors.Is(err, entryio.ErrMalformed):
		return newError(ErrMalformedInput, context, err)
	default:
		return newError(ErrIoFailure, context, err)
	}
}

// wrapCommitErr classifies an error surfaced by internal/commit.
func wrapCommitErr(context string, err error) error {
	if err == nil {
		return nil
	}
	var commitErr *commit.Error
	if errors.As(err, &commitErr) {
		return newError(ErrCommitFailed, context, err)
	}
	return newError(ErrIoFailure, context, err)
}

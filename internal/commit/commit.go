// Package commit implements the spec §4.7 temp-file commit protocol:
// the sequence that lets the skimmer replace an archive file in place
// without ever leaving it in a torn state.
package commit

import (
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"
)

// Logger is the narrow logging surface the commit protocol needs;
// satisfied by *internal/telemetry.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Error(err error, msg string, keysAndValues ...interface{})
}

// Error wraps the stage and cause of a failed commit. The archive may
// be left in either recoverable state (b) or (c) from §5: callers
// should reopen rather than retry.
type Error struct {
	Stage string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("commit failed at stage %q: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Paths names the siblings involved in committing a replacement for
// Current: a stale-backup slot, a fully-written replacement, and (when
// a repair pass runs) the post-repair replacement.
type Paths struct {
	Current string
	Old     string
	Temp    string
	Temp2   string
}

// PathsFor derives the conventional _old/_tmp/_tmp2 siblings of an
// archive file path.
func PathsFor(current string) Paths {
	return Paths{
		Current: current,
		Old:     current + "_old",
		Temp:    current + "_tmp",
		Temp2:   current + "_tmp2",
	}
}

// RepairFunc rewrites the bytes at tmpPath into tmp2Path. Passing a nil
// RepairFunc to Apply means no repair pass runs and tmp2 is simply tmp.
type RepairFunc func(tmpPath, tmp2Path string) error

// Apply commits paths.Temp (already fully written by the caller) as the
// new paths.Current, following the five steps of spec §4.7:
//
//  1. run the repair pass, if any, producing tmp2
//  2. delete a stale backup from a previous crash, if present
//  3. rename current -> old
//  4. atomically replace current with tmp2's contents
//  5. remove tmp2, tmp, and the old backup
//
// On failure during step 4, Apply attempts to roll back by renaming
// old back to current before returning.
func Apply(paths Paths, repair RepairFunc, log Logger) error {
	tmp2 := paths.Temp
	if repair != nil {
		tmp2 = paths.Temp2
		if err := repair(paths.Temp, paths.Temp2); err != nil {
			return &Error{Stage: "repair", Cause: err}
		}
	}

	if err := os.Remove(paths.Old); err != nil && !os.IsNotExist(err) {
		log.Debug("stale backup could not be removed, continuing", "path", paths.Old, "error", err)
	}

	hadCurrent := true
	if err := os.Rename(paths.Current, paths.Old); err != nil {
		if !os.IsNotExist(err) {
			return &Error{Stage: "backup", Cause: err}
		}
		hadCurrent = false
	}

	if err := replaceWithFile(paths.Current, tmp2); err != nil {
		if hadCurrent {
			if rbErr := os.Rename(paths.Old, paths.Current); rbErr != nil {
				log.Error(rbErr, "rollback rename failed, archive left without current file", "old", paths.Old, "current", paths.Current)
			}
		}
		return &Error{Stage: "replace", Cause: err}
	}

	if tmp2 != paths.Temp {
		if err := os.Remove(paths.Temp2); err != nil && !os.IsNotExist(err) {
			log.Error(err, "cleanup of post-repair temp file failed", "path", paths.Temp2)
		}
	}
	if err := os.Remove(paths.Temp); err != nil && !os.IsNotExist(err) {
		log.Error(err, "cleanup of temp file failed", "path", paths.Temp)
	}
	if err := os.Remove(paths.Old); err != nil && !os.IsNotExist(err) {
		log.Error(err, "cleanup of backup file failed", "path", paths.Old)
	}

	return nil
}

// replaceWithFile atomically makes dest's contents equal to src's,
// using renameio's write-then-rename so dest is never observed
// partially written.
func replaceWithFile(dest, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	pf, err := renameio.TempFile("", dest)
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	if _, err := io.Copy(pf, in); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}

// Package wheelerr defines the error taxonomy shared by the archive parser,
// manifest model, scheme classifier and installer.
//
// Every condition has a sentinel for classification with errors.Is and a
// typed error carrying the offending path or name for errors.As. None of
// these conditions are retried by wheelwright itself.
package wheelerr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedName indicates a filename that does not follow the
	// distribution naming grammar.
	ErrMalformedName = errors.New("malformed distribution name")

	// ErrUnreadableArchive indicates the container could not be opened or read.
	ErrUnreadableArchive = errors.New("unreadable archive")

	// ErrMissingEntry indicates an expected archive member is absent.
	ErrMissingEntry = errors.New("missing archive entry")

	// ErrMalformedManifest indicates a RECORD that cannot be parsed.
	ErrMalformedManifest = errors.New("malformed manifest")

	// ErrMalformedDataLayout indicates an unrecognized scheme directory
	// under the archive's .data directory.
	ErrMalformedDataLayout = errors.New("malformed data layout")

	// ErrIntegrityViolation indicates content whose digest does not match
	// the recorded one.
	ErrIntegrityViolation = errors.New("integrity violation")
)

// NameError reports a filename rejected by the naming grammar.
type NameError struct {
	Filename string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMalformedName, e.Filename)
}

// Unwrap returns ErrMalformedName.
func (e *NameError) Unwrap() error { return ErrMalformedName }

// ArchiveError reports an I/O or format failure on a container.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrUnreadableArchive, e.Path, e.Err)
}

// Is reports ErrUnreadableArchive as well as the underlying cause.
func (e *ArchiveError) Is(target error) bool { return target == ErrUnreadableArchive }

// Unwrap returns the underlying cause.
func (e *ArchiveError) Unwrap() error { return e.Err }

// MissingEntryError reports an absent archive member.
type MissingEntryError struct {
	Path string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingEntry, e.Path)
}

// Unwrap returns ErrMissingEntry.
func (e *MissingEntryError) Unwrap() error { return ErrMissingEntry }

// ManifestError reports a RECORD row that could not be parsed.
// Line is 1-based; zero means the position is unknown.
type ManifestError struct {
	Line   int
	Reason string
}

func (e *ManifestError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrMalformedManifest, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedManifest, e.Reason)
}

// Unwrap returns ErrMalformedManifest.
func (e *ManifestError) Unwrap() error { return ErrMalformedManifest }

// DataLayoutError reports a file under the .data directory whose scheme
// directory is not one of the known install schemes.
type DataLayoutError struct {
	Path string
	Dir  string
}

func (e *DataLayoutError) Error() string {
	return fmt.Sprintf("%s: %s: unknown scheme directory %q", ErrMalformedDataLayout, e.Path, e.Dir)
}

// Unwrap returns ErrMalformedDataLayout.
func (e *DataLayoutError) Unwrap() error { return ErrMalformedDataLayout }

// IntegrityError names the file whose content failed verification.
type IntegrityError struct {
	Path string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("hash mismatch for file %s", e.Path)
}

// Unwrap returns ErrIntegrityViolation.
func (e *IntegrityError) Unwrap() error { return ErrIntegrityViolation }

// Package record implements the RECORD manifest of a wheel: an ordered
// ledger pairing every installed file with its digest and size.
//
// A Set is keyed by archive-relative POSIX path (last write wins) and is
// always serialized in path order so that regenerated manifests are
// byte-for-byte deterministic.
package record

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

// Entry is a single RECORD row.
type Entry struct {
	// Path is archive-relative and always uses forward slashes.
	Path string
	// Algorithm is empty for unhashed entries such as RECORD itself.
	Algorithm string
	// Digest is the unpadded base64url digest; empty when Algorithm is empty.
	Digest string
	// Size is only meaningful when HasSize is set.
	Size    int64
	HasSize bool
}

// NewEntry returns an unhashed entry without a size.
func NewEntry(path string) Entry {
	return Entry{Path: toSlash(path)}
}

// EntryFor hashes data under algo and returns a complete entry for path.
func EntryFor(path, algo string, data []byte) (Entry, error) {
	digest, err := Digest(algo, data)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Path:      toSlash(path),
		Algorithm: algo,
		Digest:    digest,
		Size:      int64(len(data)),
		HasSize:   true,
	}, nil
}

// ParseEntry builds an entry from the three RECORD columns.
func ParseEntry(path, hashValue, size string) (Entry, error) {
	if path == "" {
		return Entry{}, &wheelerr.ManifestError{Reason: "empty path"}
	}
	e := Entry{Path: toSlash(path)}

	if hashValue != "" {
		algo, digest, ok := strings.Cut(hashValue, "=")
		if !ok || algo == "" || digest == "" {
			return Entry{}, &wheelerr.ManifestError{Reason: fmt.Sprintf("%s: invalid hash %q", path, hashValue)}
		}
		if n, known := digestSize(algo); known {
			raw, err := base64.RawURLEncoding.DecodeString(digest)
			if err != nil || len(raw) != n {
				return Entry{}, &wheelerr.ManifestError{Reason: fmt.Sprintf("%s: %s digest is not canonical", path, algo)}
			}
		}
		e.Algorithm = algo
		e.Digest = digest
	}

	if size != "" {
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil || n < 0 {
			return Entry{}, &wheelerr.ManifestError{Reason: fmt.Sprintf("%s: invalid size %q", path, size)}
		}
		e.Size = n
		e.HasSize = true
	}

	return e, nil
}

// HashValue returns the "algorithm=digest" column, or "" when unhashed.
func (e Entry) HashValue() string {
	if e.Algorithm == "" {
		return ""
	}
	return e.Algorithm + "=" + e.Digest
}

// SizeValue returns the size column, or "" when unknown.
func (e Entry) SizeValue() string {
	if !e.HasSize {
		return ""
	}
	return strconv.FormatInt(e.Size, 10)
}

// Check reports whether data matches the recorded digest. Entries without
// an algorithm accept any content; unsupported algorithms never match.
func (e Entry) Check(data []byte) bool {
	if e.Algorithm == "" {
		return true
	}
	got, err := Digest(e.Algorithm, data)
	if err != nil {
		return false
	}
	return got == e.Digest
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry(%s, %s, %s)", e.Path, e.HashValue(), e.SizeValue())
}

// Set is a path-unique collection of entries.
type Set struct {
	entries map[string]Entry
}

// NewSet returns a set holding entries; later duplicates replace earlier ones.
func NewSet(entries ...Entry) *Set {
	s := &Set{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Parse reads RECORD content. Rows may appear in any order; blank lines are
// skipped. A row without exactly three columns is a malformed manifest.
func Parse(content []byte) (*Set, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	s := NewSet()
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &wheelerr.ManifestError{Line: pe.Line, Reason: pe.Err.Error()}
			}
			return nil, &wheelerr.ManifestError{Reason: err.Error()}
		}

		line, _ := r.FieldPos(0)
		if len(row) != 3 {
			return nil, &wheelerr.ManifestError{
				Line:   line,
				Reason: fmt.Sprintf("expected 3 columns, got %d", len(row)),
			}
		}

		e, err := ParseEntry(row[0], row[1], strings.TrimSuffix(row[2], "\r"))
		if err != nil {
			var me *wheelerr.ManifestError
			if errors.As(err, &me) {
				me.Line = line
			}
			return nil, err
		}
		s.Add(e)
	}
	return s, nil
}

// FromContent is Parse for string content.
func FromContent(content string) (*Set, error) {
	return Parse([]byte(content))
}

// Add inserts or replaces the entry for e.Path.
func (s *Set) Add(e Entry) {
	if s.entries == nil {
		s.entries = make(map[string]Entry)
	}
	e.Path = toSlash(e.Path)
	s.entries[e.Path] = e
}

// Remove deletes the entry for path, if any.
func (s *Set) Remove(path string) {
	delete(s.entries, toSlash(path))
}

// Entry looks up the entry for an exact archive-relative path.
func (s *Set) Entry(path string) (Entry, bool) {
	e, ok := s.entries[toSlash(path)]
	return e, ok
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return len(s.entries)
}

// Entries returns all entries sorted by path.
func (s *Set) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return NewSet(s.Entries()...)
}

// Equal reports entry-for-entry equality, ignoring order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for path, e := range s.entries {
		o, ok := other.entries[path]
		if !ok || o != e {
			return false
		}
	}
	return true
}

// WriteTo serializes the set as RECORD text, one "\n"-terminated row per
// entry in path order.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	writer := csv.NewWriter(cw)
	for _, e := range s.Entries() {
		if err := writer.Write([]string{e.Path, e.HashValue(), e.SizeValue()}); err != nil {
			return cw.n, fmt.Errorf("write record row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return cw.n, fmt.Errorf("flush records: %w", err)
	}
	return cw.n, nil
}

// Content returns the serialized RECORD text.
func (s *Set) Content() string {
	var buf bytes.Buffer
	// bytes.Buffer never fails
	_, _ = s.WriteTo(&buf)
	return buf.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Package wheel opens binary distribution containers (wheels) and exposes
// their identity, metadata blocks, file listing and embedded RECORD.
//
// A Wheel holds one open zip handle for its lifetime; callers must Close it
// on every exit path, typically with defer right after Open succeeds.
package wheel

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/record"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

// Wheel is an open binary distribution container.
type Wheel struct {
	path     string
	filename *Filename
	zip      *zip.ReadCloser
	members  map[string]*zip.File
	files    []string

	metadata *Message
	info     *Message
}

// Open parses the file name and opens the container at path.
func Open(path string) (*Wheel, error) {
	filename, err := ParseFilename(filepath.Base(path))
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &wheelerr.ArchiveError{Path: path, Err: err}
	}

	w := &Wheel{
		path:     path,
		filename: filename,
		zip:      zr,
		members:  make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		// Directory entries carry no content and are not installed.
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if _, dup := w.members[f.Name]; !dup {
			w.files = append(w.files, f.Name)
		}
		w.members[f.Name] = f
	}

	return w, nil
}

// Close releases the underlying container handle.
func (w *Wheel) Close() error {
	if w.zip == nil {
		return nil
	}
	err := w.zip.Close()
	w.zip = nil
	return err
}

// Path returns the filesystem path the wheel was opened from.
func (w *Wheel) Path() string { return w.path }

// Name returns the distribution name as written in the file name.
func (w *Wheel) Name() string { return w.filename.Name }

// Version returns the distribution version.
func (w *Wheel) Version() string { return w.filename.Version }

// Filename returns the parsed file name.
func (w *Wheel) Filename() *Filename { return w.filename }

// Tags returns the compatibility tags declared by the file name.
func (w *Wheel) Tags() []Tag { return w.filename.Tags() }

// DistInfoName returns the metadata directory, "<name>-<version>.dist-info".
func (w *Wheel) DistInfoName() string { return w.filename.DistInfoName() }

// DataName returns the auxiliary data directory, "<name>-<version>.data".
func (w *Wheel) DataName() string { return w.filename.DataName() }

// Files returns every archive member path in container order.
func (w *Wheel) Files() []string {
	out := make([]string, len(w.files))
	copy(out, w.files)
	return out
}

// Has reports whether the archive contains name.
func (w *Wheel) Has(name string) bool {
	_, ok := w.members[name]
	return ok
}

// Metadata returns the parsed METADATA block, parsing it on first use.
func (w *Wheel) Metadata() (*Message, error) {
	if w.metadata != nil {
		return w.metadata, nil
	}
	data, err := w.ReadDistInfo("METADATA")
	if err != nil {
		return nil, err
	}
	w.metadata = ParseMessage(data)
	return w.metadata, nil
}

// Info returns the parsed WHEEL block, parsing it on first use.
func (w *Wheel) Info() (*Message, error) {
	if w.info != nil {
		return w.info, nil
	}
	data, err := w.ReadDistInfo("WHEEL")
	if err != nil {
		return nil, err
	}
	w.info = ParseMessage(data)
	return w.info, nil
}

// Manifest parses RECORD afresh on every call so callers may mutate the
// returned set freely.
func (w *Wheel) Manifest() (*record.Set, error) {
	data, err := w.ReadDistInfo("RECORD")
	if err != nil {
		return nil, err
	}
	set, err := record.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s/RECORD: %w", w.DistInfoName(), err)
	}
	return set, nil
}

// RootIsPurelib reports the purity flag. WHEEL is authoritative; METADATA
// is consulted when WHEEL lacks the field. Absence means impure.
func (w *Wheel) RootIsPurelib() (bool, error) {
	if w.Has(w.DistInfoName() + "/WHEEL") {
		info, err := w.Info()
		if err != nil {
			return false, err
		}
		if _, ok := info.Lookup("Root-Is-Purelib"); ok {
			return info.Bool("Root-Is-Purelib"), nil
		}
	}

	metadata, err := w.Metadata()
	if err != nil {
		return false, err
	}
	return metadata.Bool("Root-Is-Purelib"), nil
}

// WheelVersion returns the major and minor Wheel-Version from WHEEL.
func (w *Wheel) WheelVersion() (major, minor int, err error) {
	info, err := w.Info()
	if err != nil {
		return 0, 0, err
	}
	raw := info.Get("Wheel-Version")
	if raw == "" {
		return 0, 0, fmt.Errorf("%s/WHEEL: missing Wheel-Version", w.DistInfoName())
	}

	majorStr, minorStr, _ := strings.Cut(raw, ".")
	major, err = strconv.Atoi(majorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%s/WHEEL: invalid Wheel-Version %q", w.DistInfoName(), raw)
	}
	if minorStr != "" {
		minor, err = strconv.Atoi(minorStr)
		if err != nil {
			return 0, 0, fmt.Errorf("%s/WHEEL: invalid Wheel-Version %q", w.DistInfoName(), raw)
		}
	}
	return major, minor, nil
}

// ReadDistInfo reads a file from the .dist-info directory.
func (w *Wheel) ReadDistInfo(name string) ([]byte, error) {
	return w.Read(w.DistInfoName() + "/" + name)
}

// Read returns the full content of one archive member.
func (w *Wheel) Read(name string) ([]byte, error) {
	rc, err := w.OpenStream(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &wheelerr.ArchiveError{Path: w.path + ":" + name, Err: err}
	}
	return data, nil
}

// OpenStream opens one archive member for streaming reads. Reading a
// member whose content does not match its zip checksum fails at EOF.
func (w *Wheel) OpenStream(name string) (io.ReadCloser, error) {
	if w.zip == nil {
		return nil, &wheelerr.ArchiveError{Path: w.path, Err: fmt.Errorf("archive is closed")}
	}
	f, ok := w.members[name]
	if !ok {
		return nil, &wheelerr.MissingEntryError{Path: name}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, &wheelerr.ArchiveError{Path: w.path + ":" + name, Err: err}
	}
	return rc, nil
}

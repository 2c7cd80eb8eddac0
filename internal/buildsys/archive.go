package buildsys

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

// SourceArchive is an opened source distribution. The format is chosen
// once from the file name and carried for every later operation.
type SourceArchive struct {
	path   string
	format Format
	names  []string
}

// OpenSource opens the source archive at path and lists its members.
func OpenSource(archivePath string) (*SourceArchive, error) {
	format, err := DetectFormat(filepath.Base(archivePath))
	if err != nil {
		return nil, err
	}

	a := &SourceArchive{path: archivePath, format: format}
	err = a.walk(func(name string, _ io.Reader) (bool, error) {
		a.names = append(a.names, name)
		return false, nil
	})
	if err != nil {
		return nil, &wheelerr.ArchiveError{Path: archivePath, Err: err}
	}
	return a, nil
}

// Path returns the archive location.
func (a *SourceArchive) Path() string { return a.path }

// Format returns the container format.
func (a *SourceArchive) Format() Format { return a.format }

// Name returns the archive's base name.
func (a *SourceArchive) Name() string { return filepath.Base(a.path) }

// Names lists regular file members in archive order.
func (a *SourceArchive) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Has reports whether the archive contains a regular file called name.
func (a *SourceArchive) Has(name string) bool {
	for _, n := range a.names {
		if n == name {
			return true
		}
	}
	return false
}

// Read returns the content of one member.
func (a *SourceArchive) Read(name string) ([]byte, error) {
	var data []byte
	found := false
	err := a.walk(func(member string, r io.Reader) (bool, error) {
		if member != name {
			return false, nil
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return true, err
		}
		data, found = b, true
		return true, nil
	})
	if err != nil {
		return nil, &wheelerr.ArchiveError{Path: a.path + ":" + name, Err: err}
	}
	if !found {
		return nil, &wheelerr.MissingEntryError{Path: name}
	}
	return data, nil
}

// Extract unpacks every regular file into destDir, refusing members that
// would land outside it.
func (a *SourceArchive) Extract(destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	root := filepath.Clean(destDir) + string(os.PathSeparator)

	return a.walk(func(name string, r io.Reader) (bool, error) {
		target := filepath.Join(destDir, filepath.FromSlash(name))

		// Security check: prevent path traversal
		if !strings.HasPrefix(target, root) {
			return true, fmt.Errorf("illegal file path: %s", name)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return true, fmt.Errorf("create parent dir for %s: %w", target, err)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return true, fmt.Errorf("create file %s: %w", target, err)
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return true, fmt.Errorf("write file %s: %w", target, err)
		}
		return false, out.Close()
	})
}

// walk calls fn for every regular file member until fn reports done.
func (a *SourceArchive) walk(fn func(name string, r io.Reader) (done bool, err error)) error {
	if a.format == Zip {
		return a.walkZip(fn)
	}

	f, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch a.format {
	case TarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case TarBz2:
		r = bzip2.NewReader(f)
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		done, err := fn(cleanName(header.Name), tr)
		if err != nil || done {
			return err
		}
	}
}

func (a *SourceArchive) walkZip(fn func(name string, r io.Reader) (bool, error)) error {
	zr, err := zip.OpenReader(a.path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("open member %s: %w", zf.Name, err)
		}
		done, err := fn(cleanName(zf.Name), rc)
		rc.Close()
		if err != nil || done {
			return err
		}
	}
	return nil
}

// cleanName normalizes "./pkg/x" and "pkg//x" to "pkg/x".
func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "./")
}

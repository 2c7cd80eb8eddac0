package installer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/journal"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/logging"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/record"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/scheme"
)

// ErrUnsafePath indicates a destination that would escape its scheme root.
var ErrUnsafePath = errors.New("destination escapes install root")

// Paths maps every scheme to its root directory in the target environment.
type Paths map[scheme.Scheme]string

// Validate checks that every scheme has an absolute root.
func (p Paths) Validate() error {
	for _, s := range scheme.All {
		dir, ok := p[s]
		if !ok || dir == "" {
			return fmt.Errorf("no install path for scheme %s", s)
		}
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("install path for scheme %s must be absolute: %s", s, dir)
		}
	}
	return nil
}

// FileHandler writes decisions to the local filesystem.
type FileHandler struct {
	Paths Paths
	// Executable replaces the "#!python" placeholder in scripts. When empty,
	// scripts are written unchanged.
	Executable string
	// Txn, when set, records every written file and preserves files that
	// existed before the install so a rollback can restore them.
	Txn    *journal.InstallTxn
	Logger logging.Logger
}

// Handle writes the content of r to Paths[d.Scheme]/d.Path.
func (h *FileHandler) Handle(d scheme.Decision, r io.Reader) ([]record.Entry, error) {
	dest, err := h.destination(d)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.Source, err)
	}

	var entries []record.Entry
	mode := os.FileMode(0644)
	if d.Scheme == scheme.Scripts {
		mode = 0755
		if rewritten, ok := rewriteShebang(data, h.Executable); ok {
			data = rewritten
			e, err := record.EntryFor(recordPath(d), record.DefaultAlgorithm, data)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}

	if h.Txn != nil {
		if err := h.Txn.Preserve(dest); err != nil {
			return nil, err
		}
	}
	if err := writeFileAtomic(dest, data, mode); err != nil {
		return nil, err
	}
	if h.Txn != nil {
		h.Txn.Record(dest)
	}
	logging.OrNoop(h.Logger).Debug("wrote file", "path", dest, "bytes", len(data))

	return entries, nil
}

// recordPath is the RECORD row a decision's rewritten content replaces.
func recordPath(d scheme.Decision) string {
	if d.Entry != nil {
		return d.Entry.Path
	}
	return strings.TrimPrefix(d.Source, "./")
}

// destination resolves the absolute path for d and rejects traversal.
func (h *FileHandler) destination(d scheme.Decision) (string, error) {
	root, ok := h.Paths[d.Scheme]
	if !ok || root == "" {
		return "", fmt.Errorf("no install path for scheme %s", d.Scheme)
	}

	rel := filepath.FromSlash(d.Path)
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(d.Path, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, d.Path)
	}

	dest := filepath.Join(root, rel)
	check, err := filepath.Rel(root, dest)
	if err != nil || check == ".." || strings.HasPrefix(check, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, d.Path)
	}
	return dest, nil
}

// rewriteShebang replaces a leading "#!python" or "#!pythonw" line with
// the given interpreter, keeping any arguments.
func rewriteShebang(data []byte, executable string) ([]byte, bool) {
	if executable == "" || !bytes.HasPrefix(data, []byte("#!python")) {
		return nil, false
	}

	line, rest, found := bytes.Cut(data, []byte("\n"))
	args := strings.TrimPrefix(string(line), "#!python")
	args = strings.TrimPrefix(args, "w")
	if args != "" && args[0] != ' ' && args[0] != '\t' && args[0] != '\r' {
		// Something like "#!python3"; not the placeholder.
		return nil, false
	}

	var buf bytes.Buffer
	buf.WriteString("#!" + executable + args)
	if found {
		buf.WriteByte('\n')
		buf.Write(rest)
	}
	return buf.Bytes(), true
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

package buildsys

import (
	"fmt"
	"strings"
)

// Format is the container format of a source archive.
type Format int

const (
	Zip Format = iota
	TarGz
	TarBz2
	Tar
)

// suffixes maps recognized suffixes to formats, longest first.
var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", TarGz},
	{".tar.bz2", TarBz2},
	{".tgz", TarGz},
	{".tbz", TarBz2},
	{".bz2", TarBz2},
	{".zip", Zip},
	{".tar", Tar},
}

// String returns the conventional suffix for the format.
func (f Format) String() string {
	switch f {
	case Zip:
		return "zip"
	case TarGz:
		return "tar.gz"
	case TarBz2:
		return "tar.bz2"
	case Tar:
		return "tar"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// DetectFormat selects the format from the file name suffix.
func DetectFormat(name string) (Format, error) {
	_, f, ok := splitSuffix(name)
	if !ok {
		return 0, fmt.Errorf("unrecognized source archive %q", name)
	}
	return f, nil
}

// SourceDir returns the top-level directory a source archive conventionally
// unpacks into: the file name without its archive suffix.
func SourceDir(name string) string {
	base, _, ok := splitSuffix(name)
	if !ok {
		return name
	}
	return base
}

func splitSuffix(name string) (string, Format, bool) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return name[:len(name)-len(s.suffix)], s.format, true
		}
	}
	return "", 0, false
}

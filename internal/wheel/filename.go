package wheel

import (
	"path"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

// Kind distinguishes the two accepted naming grammars.
type Kind int

const (
	// KindWheel is a binary distribution: name-ver(-build)?-py-abi-plat.whl
	KindWheel Kind = iota
	// KindDistInfo is a distribution directory: name-ver.dist-info
	KindDistInfo
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindWheel:
		return "wheel"
	case KindDistInfo:
		return "dist-info"
	default:
		return "unknown"
	}
}

// filenamePattern mirrors the wheel naming convention. Name is matched
// non-greedily so the first hyphen followed by a digit starts the version.
var filenamePattern = regexp.MustCompile(
	`^(?P<namever>(?P<name>.+?)(-(?P<ver>\d.+?))?)` +
		`((-(?P<build>\d.*?))?-(?P<pyver>.+?)-(?P<abi>.+?)-(?P<plat>.+?)\.whl|\.dist-info)$`,
)

// Filename is a parsed distribution filename.
type Filename struct {
	Name     string
	Version  string
	Build    string
	PyTags   []string
	ABITags  []string
	PlatTags []string
	Kind     Kind
}

// ParseFilename parses the base name of a wheel file or .dist-info directory.
func ParseFilename(name string) (*Filename, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))

	m := filenamePattern.FindStringSubmatch(base)
	if m == nil {
		return nil, &wheelerr.NameError{Filename: base}
	}
	group := func(g string) string {
		return m[filenamePattern.SubexpIndex(g)]
	}

	f := &Filename{
		Name:    group("name"),
		Version: group("ver"),
		Build:   group("build"),
		Kind:    KindDistInfo,
	}
	if strings.HasSuffix(base, ".whl") {
		f.Kind = KindWheel
		f.PyTags = strings.Split(group("pyver"), ".")
		f.ABITags = strings.Split(group("abi"), ".")
		f.PlatTags = strings.Split(group("plat"), ".")
	}

	if f.Version == "" {
		return nil, &wheelerr.NameError{Filename: base}
	}
	return f, nil
}

// IsWheelFilename reports whether name parses as a binary distribution.
func IsWheelFilename(name string) bool {
	f, err := ParseFilename(name)
	return err == nil && f.Kind == KindWheel
}

// DistInfoName returns "<name>-<version>.dist-info".
func (f *Filename) DistInfoName() string {
	return f.Name + "-" + f.Version + ".dist-info"
}

// DataName returns "<name>-<version>.data".
func (f *Filename) DataName() string {
	return f.Name + "-" + f.Version + ".data"
}

// Tags expands compressed tag sets (e.g. "py2.py3") into every
// interpreter/abi/platform combination the file declares.
func (f *Filename) Tags() []Tag {
	tags := make([]Tag, 0, len(f.PyTags)*len(f.ABITags)*len(f.PlatTags))
	for _, py := range f.PyTags {
		for _, abi := range f.ABITags {
			for _, plat := range f.PlatTags {
				tags = append(tags, Tag{Interpreter: py, ABI: abi, Platform: plat})
			}
		}
	}
	return tags
}

// MinimumSupportedIndex returns the position of the most specific tag in
// supported (ordered most to least specific) that this file declares, or
// -1 when the file is not installable with those tags.
func (f *Filename) MinimumSupportedIndex(supported []Tag) int {
	declared := make(map[Tag]struct{})
	for _, t := range f.Tags() {
		declared[t] = struct{}{}
	}
	for i, t := range supported {
		if _, ok := declared[t]; ok {
			return i
		}
	}
	return -1
}

// IsSupportedBy reports whether any declared tag appears in supported.
func (f *Filename) IsSupportedBy(supported []Tag) bool {
	return f.MinimumSupportedIndex(supported) >= 0
}

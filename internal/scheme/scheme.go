// Package scheme classifies every file of a wheel into one of the five
// install schemes and computes its destination relative to that scheme.
package scheme

import (
	"fmt"
	"path"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/record"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

// Scheme is an install target category.
type Scheme int

const (
	// PureLib holds platform-independent library code.
	PureLib Scheme = iota
	// PlatLib holds platform-specific library code.
	PlatLib
	// Data holds arbitrary data files installed under the environment prefix.
	Data
	// Scripts holds executables.
	Scripts
	// Headers holds C headers.
	Headers
)

// All lists every scheme in declaration order.
var All = []Scheme{PureLib, PlatLib, Data, Scripts, Headers}

// String returns the directory name used for the scheme inside .data.
func (s Scheme) String() string {
	switch s {
	case PureLib:
		return "purelib"
	case PlatLib:
		return "platlib"
	case Data:
		return "data"
	case Scripts:
		return "scripts"
	case Headers:
		return "headers"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// Parse maps a .data subdirectory name to its scheme. Matching is exact
// and case-sensitive.
func Parse(name string) (Scheme, bool) {
	switch name {
	case "purelib":
		return PureLib, true
	case "platlib":
		return PlatLib, true
	case "data":
		return Data, true
	case "scripts":
		return Scripts, true
	case "headers":
		return Headers, true
	default:
		return 0, false
	}
}

// Root returns the scheme for files outside the .data directory.
func Root(rootIsPurelib bool) Scheme {
	if rootIsPurelib {
		return PureLib
	}
	return PlatLib
}

// Decision places one archive member. Entry is nil when the member has no
// RECORD row.
type Decision struct {
	// Source is the archive-relative path of the member.
	Source string
	// Path is the destination relative to the scheme root.
	Path   string
	Scheme Scheme
	Entry  *record.Entry
}

// Resolver classifies the files of one wheel.
type Resolver struct {
	dataDir    string
	rootScheme Scheme
	manifest   *record.Set
}

// NewResolver returns a resolver for a wheel whose auxiliary data
// directory is dataDir. manifest may be nil.
func NewResolver(dataDir string, rootScheme Scheme, manifest *record.Set) *Resolver {
	if manifest == nil {
		manifest = record.NewSet()
	}
	return &Resolver{
		dataDir:    strings.TrimSuffix(dataDir, "/"),
		rootScheme: rootScheme,
		manifest:   manifest,
	}
}

// Decide classifies a single archive member. Source keeps the member name
// exactly as stored; a leading "./" only affects Path and the scheme.
func (r *Resolver) Decide(name string) (Decision, error) {
	d := Decision{Source: name}
	rel := strings.TrimPrefix(name, "./")

	rest, ok := underDir(rel, r.dataDir)
	if !ok {
		d.Path = rel
		d.Scheme = r.rootScheme
		d.Entry = r.lookup(name, rel)
		return d, nil
	}

	// rest is "<scheme>/<relative path>"; the first component is the
	// immediate child of the data directory.
	dir, relative, found := strings.Cut(rest, "/")
	if !found || relative == "" {
		return Decision{}, &wheelerr.DataLayoutError{Path: name, Dir: dir}
	}
	s, ok := Parse(dir)
	if !ok {
		return Decision{}, &wheelerr.DataLayoutError{Path: name, Dir: dir}
	}

	d.Path = relative
	d.Scheme = s
	d.Entry = r.lookup(name, rel)
	return d, nil
}

// DecideAll classifies files in order. The first unrecognized data
// directory aborts the whole batch.
func (r *Resolver) DecideAll(files []string) ([]Decision, error) {
	decisions := make([]Decision, 0, len(files))
	for _, name := range files {
		d, err := r.Decide(name)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// lookup finds the RECORD row for a member, by its stored name first.
func (r *Resolver) lookup(names ...string) *record.Entry {
	for _, name := range names {
		if e, ok := r.manifest.Entry(name); ok {
			return &e
		}
	}
	return nil
}

// underDir reports whether name lives below dir by whole path components
// and returns the remainder.
func underDir(name, dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	clean := path.Clean(name)
	if !strings.HasPrefix(clean, dir+"/") {
		return "", false
	}
	return strings.TrimPrefix(clean, dir+"/"), true
}

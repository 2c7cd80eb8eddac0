// Package buildsys reads the build-system declaration of a source
// distribution: which requirements must be present at build time and
// which backend builds it.
//
// The backend is only named here, never loaded or run. Building is done
// by an external runner implementing Backend.
package buildsys

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

const (
	// DefaultBackend is used when a source tree declares no backend.
	DefaultBackend = "setuptools.build_meta:__legacy__"

	descriptorName = "pyproject.toml"
)

// DefaultRequires is the build requirement set paired with DefaultBackend.
var DefaultRequires = []string{"setuptools", "wheel"}

// BuildSystem names the backend that builds a source tree.
type BuildSystem struct {
	Requires []string `yaml:"requires"`
	// Backend is the declared entry point, "module" or "module:object".
	Backend       string   `yaml:"build-backend"`
	BackendModule string   `yaml:"-"`
	BackendObject string   `yaml:"-"`
	BackendPath   []string `yaml:"backend-path,omitempty"`
}

// New builds a BuildSystem, splitting backend on its first colon.
func New(requires []string, backend string, backendPath []string) *BuildSystem {
	module, object, _ := strings.Cut(backend, ":")
	return &BuildSystem{
		Requires:      append([]string(nil), requires...),
		Backend:       backend,
		BackendModule: module,
		BackendObject: object,
		BackendPath:   backendPath,
	}
}

// Default returns the legacy setuptools build system.
func Default() *BuildSystem {
	return New(DefaultRequires, DefaultBackend, nil)
}

// IsDefault reports whether bs names the legacy setuptools backend.
func (bs *BuildSystem) IsDefault() bool {
	return bs.Backend == DefaultBackend
}

// Read returns the build system declared by the source archive's
// pyproject.toml, or Default when the file or its build-system table is
// absent.
func Read(a *SourceArchive) (*BuildSystem, error) {
	descriptor := path.Join(SourceDir(a.Name()), descriptorName)

	data, err := a.Read(descriptor)
	if errors.Is(err, wheelerr.ErrMissingEntry) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	bs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", descriptor, err)
	}
	return bs, nil
}

// pyproject is the subset of pyproject.toml read here.
type pyproject struct {
	BuildSystem *struct {
		Requires     *[]string `toml:"requires"`
		BuildBackend *string   `toml:"build-backend"`
		BackendPath  any       `toml:"backend-path"`
	} `toml:"build-system"`
}

// Parse reads a build system from pyproject.toml content. A missing
// build-system table yields Default; inside the table, a missing
// requires or build-backend falls back to the default value for that key.
func Parse(data []byte) (*BuildSystem, error) {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", descriptorName, err)
	}
	if doc.BuildSystem == nil {
		return Default(), nil
	}

	table := doc.BuildSystem
	requires := DefaultRequires
	if table.Requires != nil {
		requires = *table.Requires
	}
	backend := DefaultBackend
	if table.BuildBackend != nil {
		backend = *table.BuildBackend
	}

	backendPath, err := stringList(table.BackendPath)
	if err != nil {
		return nil, fmt.Errorf("backend-path: %w", err)
	}

	return New(requires, backend, backendPath), nil
}

// stringList accepts a single string or an array of strings.
func stringList(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or array, got %T", v)
	}
}

// requirementName matches the distribution name at the start of a
// dependency specifier.
var requirementName = regexp.MustCompile(`^\s*([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)

// RequirementNames returns the distribution names of Requires, dropping
// version constraints, extras and markers.
func (bs *BuildSystem) RequirementNames() ([]string, error) {
	names := make([]string, 0, len(bs.Requires))
	for _, req := range bs.Requires {
		m := requirementName.FindStringSubmatch(req)
		if m == nil {
			return nil, fmt.Errorf("invalid requirement %q", req)
		}
		names = append(names, m[1])
	}
	return names, nil
}

// Backend is implemented by runners that invoke a build backend in a
// separate process. Each method mirrors one backend hook.
type Backend interface {
	BuildWheel(ctx context.Context, wheelDir string, settings map[string]string, metadataDir string) (string, error)
	BuildSdist(ctx context.Context, sdistDir string, settings map[string]string) (string, error)
	GetRequiresForBuildWheel(ctx context.Context, settings map[string]string) ([]string, error)
	GetRequiresForBuildSdist(ctx context.Context, settings map[string]string) ([]string, error)
}

package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheel"
)

// DefaultInterpreter is the implementation assumed when none is configured.
const DefaultInterpreter = "cpython"

// Environment describes the interpreter wheels are installed for. It
// satisfies the runtime contract used when choosing cached archives.
//
// Its platforms come from PlatformTags plus any configured extras, so a
// Linux host with an undetected C library only accepts linux_<arch> and
// pure wheels unless manylinux or musllinux tags are configured.
type Environment struct {
	name      string
	version   string
	major     int
	minor     int
	abi       string
	platforms []string
}

// NewEnvironment builds an environment for interpreter name at version
// (e.g. "3.12.4") running on info. abi defaults to "cp<major><minor>".
// extraPlatforms are appended after the platform tags derived from info.
func NewEnvironment(name, version, abi string, info *Info, extraPlatforms []string) (*Environment, error) {
	if name == "" {
		name = DefaultInterpreter
	}
	major, minor, err := parseVersion(version)
	if err != nil {
		return nil, err
	}
	if abi == "" {
		abi = fmt.Sprintf("%s%d%d", interpreterAbbrev(name), major, minor)
	}

	var platforms []string
	if info != nil {
		platforms = PlatformTags(info)
	}
	for _, p := range extraPlatforms {
		if p != "" && !contains(platforms, p) {
			platforms = append(platforms, p)
		}
	}

	return &Environment{
		name:      strings.ToLower(name),
		version:   version,
		major:     major,
		minor:     minor,
		abi:       abi,
		platforms: platforms,
	}, nil
}

func (e *Environment) InterpreterName() string    { return e.name }
func (e *Environment) InterpreterVersion() string { return e.version }

// Platforms returns the platform tags in preference order.
func (e *Environment) Platforms() []string {
	return append([]string(nil), e.platforms...)
}

// SupportedTags lists every tag this environment can install, most
// specific first: interpreter-specific tags for each platform, then
// generic python tags for each platform, then platform-independent tags.
func (e *Environment) SupportedTags() []wheel.Tag {
	var tags []wheel.Tag
	add := func(interp, abi, plat string) {
		tags = append(tags, wheel.Tag{Interpreter: interp, ABI: abi, Platform: plat})
	}

	abbrev := interpreterAbbrev(e.name)
	interp := fmt.Sprintf("%s%d%d", abbrev, e.major, e.minor)

	abis := []string{e.abi}
	if abbrev == "cp" && e.major == 3 && e.minor >= 2 && e.abi != "abi3" {
		abis = append(abis, "abi3")
	}
	if e.abi != "none" {
		abis = append(abis, "none")
	}

	for _, abi := range abis {
		for _, plat := range e.platforms {
			add(interp, abi, plat)
		}
	}
	if abbrev == "cp" && e.major == 3 {
		for minor := e.minor - 1; minor >= 2; minor-- {
			for _, plat := range e.platforms {
				add(fmt.Sprintf("cp3%d", minor), "abi3", plat)
			}
		}
	}

	generic := e.genericInterpreters()
	for _, py := range generic {
		for _, plat := range e.platforms {
			add(py, "none", plat)
		}
	}

	add(interp, "none", "any")
	for _, py := range generic {
		add(py, "none", "any")
	}
	return tags
}

// genericInterpreters returns py<major><minor>, py<major>, then each
// older py<major><minor> down to zero.
func (e *Environment) genericInterpreters() []string {
	out := []string{
		fmt.Sprintf("py%d%d", e.major, e.minor),
		fmt.Sprintf("py%d", e.major),
	}
	for minor := e.minor - 1; minor >= 0; minor-- {
		out = append(out, fmt.Sprintf("py%d%d", e.major, minor))
	}
	return out
}

// PlatformTags returns the wheel platform tags native to info, most
// specific first. On Linux the portable manylinux or musllinux policies
// are claimed only when the C library is known (see Info.Libc); otherwise
// only the plain linux tag is returned and portable wheels must be enabled
// through extra platforms.
func PlatformTags(info *Info) []string {
	arch := wheelArch(info.OS, info.Arch)
	if arch == "" {
		return nil
	}
	switch info.OS {
	case "linux":
		return linuxPlatformTags(info.Arch, info.Libc)
	case "darwin":
		if info.Arch == "arm64" {
			return []string{"macosx_11_0_" + arch, "macosx_11_0_universal2"}
		}
		return []string{"macosx_10_9_" + arch, "macosx_10_9_universal2"}
	case "windows":
		return []string{"win_" + arch}
	}
	return nil
}

func interpreterAbbrev(name string) string {
	switch strings.ToLower(name) {
	case "cpython", "cp":
		return "cp"
	case "pypy", "pp":
		return "pp"
	case "ironpython", "ip":
		return "ip"
	case "jython", "jy":
		return "jy"
	default:
		return strings.ToLower(name)
	}
}

func parseVersion(version string) (int, int, error) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("interpreter version %q: want major.minor[.micro]", version)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("interpreter version %q: %w", version, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("interpreter version %q: %w", version, err)
	}
	return major, minor, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

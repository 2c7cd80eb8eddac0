package platform

import (
	"fmt"
	"strings"
)

// C libraries a Linux host can link wheels against.
const (
	LibcGlibc = "glibc"
	LibcMusl  = "musl"
)

// familyMap maps gopsutil family strings to canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archNames spells a normalized architecture the way each OS names it in
// wheel platform tags.
var archNames = map[string]map[string]string{
	"linux":   {"amd64": "x86_64", "arm64": "aarch64"},
	"darwin":  {"amd64": "x86_64", "arm64": "arm64"},
	"windows": {"amd64": "amd64", "arm64": "arm64"},
}

// manylinuxTags lists the glibc policies claimed per architecture, newest
// first. Newer policies (manylinux_2_28 and up) are not assumed; hosts
// that have them list the tags under interpreter.platforms.
var manylinuxTags = map[string][]string{
	"amd64": {
		"manylinux_2_17_x86_64", "manylinux2014_x86_64",
		"manylinux_2_12_x86_64", "manylinux2010_x86_64",
		"manylinux_2_5_x86_64", "manylinux1_x86_64",
	},
	"arm64": {"manylinux_2_17_aarch64", "manylinux2014_aarch64"},
}

// musllinuxVersions are the musl policies claimed on musl hosts, newest first.
var musllinuxVersions = []string{"1_2", "1_1"}

// normalizeArch converts GOARCH values to normalized architecture names.
// Only amd64 and arm64 are supported.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64)", arch)
	}
}

// wheelArch returns the tag spelling of arch on goos, or "" when wheels
// for that combination are not recognised.
func wheelArch(goos, arch string) string {
	return archNames[goos][arch]
}

func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizePlatform(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}

// libcFor guesses the C library of a detected distribution. Alpine is the
// only musl family; an undetected distribution stays unknown.
func libcFor(platform, family string) string {
	switch {
	case platform == "":
		return ""
	case platform == "alpine" || family == FamilyAlpine:
		return LibcMusl
	default:
		return LibcGlibc
	}
}

// linuxPlatformTags returns the portable policy tags for libc followed by
// the plain linux tag.
func linuxPlatformTags(arch, libc string) []string {
	name := wheelArch("linux", arch)
	if name == "" {
		return nil
	}

	var tags []string
	switch libc {
	case LibcGlibc:
		tags = append(tags, manylinuxTags[arch]...)
	case LibcMusl:
		for _, v := range musllinuxVersions {
			tags = append(tags, "musllinux_"+v+"_"+name)
		}
	}
	return append(tags, "linux_"+name)
}

package platform

import (
	"reflect"
	"testing"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheel"
)

var linuxAMD64 = &Info{OS: "linux", Arch: "amd64", ArchRaw: "amd64"}

func tag(s string) wheel.Tag {
	t, err := wheel.ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewEnvironment_Defaults(t *testing.T) {
	env, err := NewEnvironment("", "3.12.4", "", linuxAMD64, nil)
	if err != nil {
		t.Fatalf("NewEnvironment() error = %v", err)
	}
	if env.InterpreterName() != "cpython" {
		t.Errorf("InterpreterName() = %q", env.InterpreterName())
	}
	if env.InterpreterVersion() != "3.12.4" {
		t.Errorf("InterpreterVersion() = %q", env.InterpreterVersion())
	}
	if got := env.Platforms(); !reflect.DeepEqual(got, []string{"linux_x86_64"}) {
		t.Errorf("Platforms() = %v", got)
	}
}

func TestNewEnvironment_BadVersion(t *testing.T) {
	for _, v := range []string{"", "3", "three.twelve", "3.x"} {
		if _, err := NewEnvironment("cpython", v, "", linuxAMD64, nil); err == nil {
			t.Errorf("NewEnvironment(%q) should fail", v)
		}
	}
}

func TestSupportedTags_CPythonOrder(t *testing.T) {
	env, err := NewEnvironment("cpython", "3.12.1", "", linuxAMD64, nil)
	if err != nil {
		t.Fatal(err)
	}
	tags := env.SupportedTags()

	head := []wheel.Tag{
		tag("cp312-cp312-linux_x86_64"),
		tag("cp312-abi3-linux_x86_64"),
		tag("cp312-none-linux_x86_64"),
		tag("cp311-abi3-linux_x86_64"),
	}
	if !reflect.DeepEqual(tags[:len(head)], head) {
		t.Errorf("head = %v, want %v", tags[:len(head)], head)
	}

	tail := []wheel.Tag{tag("py31-none-any"), tag("py30-none-any")}
	if got := tags[len(tags)-2:]; !reflect.DeepEqual(got, tail) {
		t.Errorf("tail = %v, want %v", got, tail)
	}

	index := make(map[wheel.Tag]int, len(tags))
	for i, tg := range tags {
		if _, dup := index[tg]; dup {
			t.Errorf("duplicate tag %v", tg)
		}
		index[tg] = i
	}
	order := []string{
		"cp32-abi3-linux_x86_64",
		"py312-none-linux_x86_64",
		"py3-none-linux_x86_64",
		"cp312-none-any",
		"py312-none-any",
		"py3-none-any",
	}
	prev := -1
	for _, s := range order {
		i, ok := index[tag(s)]
		if !ok {
			t.Fatalf("missing tag %s", s)
		}
		if i <= prev {
			t.Errorf("%s at %d, expected after %d", s, i, prev)
		}
		prev = i
	}
}

func TestSupportedTags_ExtraPlatforms(t *testing.T) {
	env, err := NewEnvironment("cpython", "3.11", "", linuxAMD64, []string{"manylinux2014_x86_64", "linux_x86_64"})
	if err != nil {
		t.Fatal(err)
	}
	if got := env.Platforms(); !reflect.DeepEqual(got, []string{"linux_x86_64", "manylinux2014_x86_64"}) {
		t.Errorf("Platforms() = %v", got)
	}
	tags := env.SupportedTags()
	if tags[0] != tag("cp311-cp311-linux_x86_64") || tags[1] != tag("cp311-cp311-manylinux2014_x86_64") {
		t.Errorf("first tags = %v", tags[:2])
	}
}

func TestSupportedTags_NonCPython(t *testing.T) {
	env, err := NewEnvironment("pypy", "3.10.14", "pypy310_pp73", linuxAMD64, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, tg := range env.SupportedTags() {
		if tg.ABI == "abi3" {
			t.Fatalf("pypy should not accept abi3, got %v", tg)
		}
	}
	if got := env.SupportedTags()[0]; got != tag("pp310-pypy310_pp73-linux_x86_64") {
		t.Errorf("first tag = %v", got)
	}
}

func TestSupportedTags_NoHostPlatform(t *testing.T) {
	env, err := NewEnvironment("cpython", "3.12", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, tg := range env.SupportedTags() {
		if tg.Platform != "any" {
			t.Fatalf("unexpected platform tag %v", tg)
		}
	}
}

func TestPlatformTags(t *testing.T) {
	tests := []struct {
		info *Info
		want []string
	}{
		{&Info{OS: "linux", Arch: "arm64"}, []string{"linux_aarch64"}},
		{&Info{OS: "linux", Arch: "arm64", Libc: LibcGlibc}, []string{"manylinux_2_17_aarch64", "manylinux2014_aarch64", "linux_aarch64"}},
		{&Info{OS: "linux", Arch: "amd64", Libc: LibcGlibc}, []string{
			"manylinux_2_17_x86_64", "manylinux2014_x86_64",
			"manylinux_2_12_x86_64", "manylinux2010_x86_64",
			"manylinux_2_5_x86_64", "manylinux1_x86_64",
			"linux_x86_64",
		}},
		{&Info{OS: "linux", Arch: "amd64", Libc: LibcMusl}, []string{"musllinux_1_2_x86_64", "musllinux_1_1_x86_64", "linux_x86_64"}},
		{&Info{OS: "windows", Arch: "arm64"}, []string{"win_arm64"}},
		{&Info{OS: "darwin", Arch: "arm64"}, []string{"macosx_11_0_arm64", "macosx_11_0_universal2"}},
		{&Info{OS: "darwin", Arch: "amd64"}, []string{"macosx_10_9_x86_64", "macosx_10_9_universal2"}},
		{&Info{OS: "windows", Arch: "amd64"}, []string{"win_amd64"}},
		{&Info{OS: "plan9", Arch: "amd64"}, nil},
	}
	for _, tt := range tests {
		if got := PlatformTags(tt.info); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PlatformTags(%s/%s) = %v, want %v", tt.info.OS, tt.info.Arch, got, tt.want)
		}
	}
}

func TestSupportedTags_GlibcHostPrefersManylinux(t *testing.T) {
	host := &Info{OS: "linux", Arch: "amd64", ArchRaw: "amd64", Platform: "ubuntu", Family: FamilyDebian, Libc: LibcGlibc}
	env, err := NewEnvironment("cpython", "3.12", "", host, nil)
	if err != nil {
		t.Fatal(err)
	}

	tags := env.SupportedTags()
	if tags[0] != tag("cp312-cp312-manylinux_2_17_x86_64") {
		t.Errorf("first tag = %v, want the newest manylinux policy", tags[0])
	}
	w, err := wheel.ParseFilename("numpy-2.0.0-cp312-cp312-manylinux_2_17_x86_64.manylinux2014_x86_64.whl")
	if err != nil {
		t.Fatal(err)
	}
	if !w.IsSupportedBy(tags) {
		t.Error("manylinux wheel should be supported on a glibc host")
	}
}

package wheel

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheelerr"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Filename
	}{
		{
			name:  "pure wheel",
			input: "demo-1.0-py3-none-any.whl",
			want: Filename{
				Name: "demo", Version: "1.0",
				PyTags: []string{"py3"}, ABITags: []string{"none"}, PlatTags: []string{"any"},
				Kind: KindWheel,
			},
		},
		{
			name:  "build tag",
			input: "demo-1.0-2-py3-none-any.whl",
			want: Filename{
				Name: "demo", Version: "1.0", Build: "2",
				PyTags: []string{"py3"}, ABITags: []string{"none"}, PlatTags: []string{"any"},
				Kind: KindWheel,
			},
		},
		{
			name:  "compressed tag sets",
			input: "six-1.16.0-py2.py3-none-any.whl",
			want: Filename{
				Name: "six", Version: "1.16.0",
				PyTags: []string{"py2", "py3"}, ABITags: []string{"none"}, PlatTags: []string{"any"},
				Kind: KindWheel,
			},
		},
		{
			name:  "underscored name",
			input: "typing_extensions-4.12.2-py3-none-any.whl",
			want: Filename{
				Name: "typing_extensions", Version: "4.12.2",
				PyTags: []string{"py3"}, ABITags: []string{"none"}, PlatTags: []string{"any"},
				Kind: KindWheel,
			},
		},
		{
			name:  "platform wheel",
			input: "numpy-2.1.0-cp312-cp312-manylinux_2_17_x86_64.manylinux2014_x86_64.whl",
			want: Filename{
				Name: "numpy", Version: "2.1.0",
				PyTags:   []string{"cp312"},
				ABITags:  []string{"cp312"},
				PlatTags: []string{"manylinux_2_17_x86_64", "manylinux2014_x86_64"},
				Kind:     KindWheel,
			},
		},
		{
			name:  "dist-info directory",
			input: "demo-1.0.dist-info",
			want:  Filename{Name: "demo", Version: "1.0", Kind: KindDistInfo},
		},
		{
			name:  "directory prefix is ignored",
			input: "/tmp/cache/demo-1.0-py3-none-any.whl",
			want: Filename{
				Name: "demo", Version: "1.0",
				PyTags: []string{"py3"}, ABITags: []string{"none"}, PlatTags: []string{"any"},
				Kind: KindWheel,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilename(tt.input)
			if err != nil {
				t.Fatalf("ParseFilename(%q) error = %v", tt.input, err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("ParseFilename(%q) = %+v, want %+v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestParseFilename_Malformed(t *testing.T) {
	tests := []string{
		"not-a-wheel.txt",
		"demo.whl",
		"demo-py3-none-any.whl",
		"demo.dist-info",
		"",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFilename(input)
			if !errors.Is(err, wheelerr.ErrMalformedName) {
				t.Fatalf("ParseFilename(%q) error = %v, want ErrMalformedName", input, err)
			}
			var nameErr *wheelerr.NameError
			if !errors.As(err, &nameErr) {
				t.Fatalf("error %T is not *NameError", err)
			}
		})
	}
}

func TestFilename_DirectoryNames(t *testing.T) {
	f, err := ParseFilename("demo-1.0-py3-none-any.whl")
	if err != nil {
		t.Fatal(err)
	}
	if got := f.DistInfoName(); got != "demo-1.0.dist-info" {
		t.Errorf("DistInfoName() = %q", got)
	}
	if got := f.DataName(); got != "demo-1.0.data" {
		t.Errorf("DataName() = %q", got)
	}
}

func TestFilename_TagsExpandCartesianProduct(t *testing.T) {
	f, err := ParseFilename("demo-1.0-py2.py3-none-any.manylinux1_x86_64.whl")
	if err != nil {
		t.Fatal(err)
	}

	want := []Tag{
		{"py2", "none", "any"},
		{"py2", "none", "manylinux1_x86_64"},
		{"py3", "none", "any"},
		{"py3", "none", "manylinux1_x86_64"},
	}
	if got := f.Tags(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestFilename_MinimumSupportedIndex(t *testing.T) {
	supported := []Tag{
		{"cp312", "cp312", "linux_x86_64"},
		{"cp312", "abi3", "linux_x86_64"},
		{"py3", "none", "linux_x86_64"},
		{"py3", "none", "any"},
	}

	tests := []struct {
		input string
		want  int
	}{
		{"demo-1.0-cp312-cp312-linux_x86_64.whl", 0},
		{"demo-1.0-cp312-abi3-linux_x86_64.whl", 1},
		{"demo-1.0-py2.py3-none-any.whl", 3},
		{"demo-1.0-py3-none-any.linux_x86_64.whl", 2},
		{"demo-1.0-cp311-cp311-win_amd64.whl", -1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFilename(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if got := f.MinimumSupportedIndex(supported); got != tt.want {
				t.Errorf("MinimumSupportedIndex() = %d, want %d", got, tt.want)
			}
			if got := f.IsSupportedBy(supported); got != (tt.want >= 0) {
				t.Errorf("IsSupportedBy() = %v", got)
			}
		})
	}
}

func TestIsWheelFilename(t *testing.T) {
	if !IsWheelFilename("demo-1.0-py3-none-any.whl") {
		t.Error("expected wheel filename to be recognized")
	}
	if IsWheelFilename("demo-1.0.dist-info") {
		t.Error("dist-info directory is not a wheel")
	}
	if IsWheelFilename("demo-1.0.tar.gz") {
		t.Error("sdist is not a wheel")
	}
}

func TestKind_String(t *testing.T) {
	if KindWheel.String() != "wheel" || KindDistInfo.String() != "dist-info" {
		t.Errorf("unexpected kind names %q %q", KindWheel, KindDistInfo)
	}
	if Kind(42).String() != "unknown" {
		t.Errorf("Kind(42).String() = %q", Kind(42))
	}
}

func TestParseTag(t *testing.T) {
	tag, err := ParseTag("cp312-abi3-linux_x86_64")
	if err != nil {
		t.Fatal(err)
	}
	if tag != (Tag{"cp312", "abi3", "linux_x86_64"}) {
		t.Errorf("ParseTag() = %+v", tag)
	}
	if tag.String() != "cp312-abi3-linux_x86_64" {
		t.Errorf("String() = %q", tag.String())
	}

	for _, bad := range []string{"py3-none", "py2.py3-none-any", "py3--any", "a-b-c-d"} {
		if _, err := ParseTag(bad); err == nil {
			t.Errorf("ParseTag(%q) expected error", bad)
		}
	}

	if _, err := ParseTags([]string{"py3-none-any", "bad"}); err == nil {
		t.Error("ParseTags expected error for invalid element")
	}
}

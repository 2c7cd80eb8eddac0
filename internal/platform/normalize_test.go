package platform

import "testing"

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"amd64", "amd64", false},
		{"x86_64", "amd64", false},
		{"arm64", "arm64", false},
		{"aarch64", "arm64", false},
		{"386", "", true},
		{"riscv64", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeArch(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeArch(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("normalizeArch(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapFamily(t *testing.T) {
	tests := map[string]string{
		"ubuntu":   FamilyDebian,
		" Rocky ":  FamilyRHEL,
		"opensuse": FamilySUSE,
		"manjaro":  FamilyArch,
		"alpine":   FamilyAlpine,
		"nixos":    FamilyUnknown,
		"":         FamilyUnknown,
	}
	for in, want := range tests {
		if got := mapFamily(in); got != want {
			t.Errorf("mapFamily(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLibcFor(t *testing.T) {
	tests := []struct {
		platform, family, want string
	}{
		{"ubuntu", FamilyDebian, LibcGlibc},
		{"rocky", FamilyRHEL, LibcGlibc},
		{"alpine", FamilyAlpine, LibcMusl},
		{"postmarketos", FamilyAlpine, LibcMusl},
		{"nixos", FamilyUnknown, LibcGlibc},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := libcFor(tt.platform, tt.family); got != tt.want {
			t.Errorf("libcFor(%q, %q) = %q, want %q", tt.platform, tt.family, got, tt.want)
		}
	}
}

func TestWheelArch(t *testing.T) {
	tests := []struct {
		goos, arch, want string
	}{
		{"linux", "amd64", "x86_64"},
		{"linux", "arm64", "aarch64"},
		{"darwin", "arm64", "arm64"},
		{"windows", "amd64", "amd64"},
		{"plan9", "amd64", ""},
		{"linux", "riscv64", ""},
	}
	for _, tt := range tests {
		if got := wheelArch(tt.goos, tt.arch); got != tt.want {
			t.Errorf("wheelArch(%q, %q) = %q, want %q", tt.goos, tt.arch, got, tt.want)
		}
	}
}

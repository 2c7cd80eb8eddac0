package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/testutil"
)

func TestBuildSystem(t *testing.T) {
	testutil.SetupTestEnv(t)

	sdist := filepath.Join(t.TempDir(), "demo-1.0.tar.gz")
	testutil.BuildTarGz(t, sdist, []testutil.File{
		{Name: "demo-1.0/pyproject.toml", Body: "[build-system]\nrequires = [\"hatchling>=1.0\"]\nbuild-backend = \"hatchling.build\"\n"},
		{Name: "demo-1.0/demo.py", Body: "x = 1\n"},
	})

	out, _, err := run(t, "build-system", sdist)
	if err != nil {
		t.Fatalf("build-system error = %v", err)
	}
	for _, want := range []string{"backend:  hatchling.build", "requires: hatchling>=1.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, err = run(t, "build-system", "--yaml", sdist)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "build-backend: hatchling.build") {
		t.Errorf("yaml output = %s", out)
	}
}

func TestBuildSystem_DefaultWithoutPyproject(t *testing.T) {
	testutil.SetupTestEnv(t)

	sdist := filepath.Join(t.TempDir(), "legacy-0.1.zip")
	testutil.BuildZip(t, sdist, []testutil.File{{Name: "legacy-0.1/setup.py", Body: "pass\n"}})

	out, _, err := run(t, "build-system", sdist)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "setuptools.build_meta:__legacy__") {
		t.Errorf("output = %s, want default backend", out)
	}
}

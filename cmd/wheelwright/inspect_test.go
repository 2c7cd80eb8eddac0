package main

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/testutil"
)

func inspectFixture(t *testing.T) string {
	t.Helper()
	return testutil.BuildWheel(t, t.TempDir(), testutil.WheelSpec{
		Name:    "demo",
		Version: "2.0",
		Purelib: true,
		Files: []testutil.File{
			{Name: "demo/__init__.py", Body: "x = 1\n"},
			{Name: "demo-2.0.data/headers/demo.h", Body: "int x;\n"},
		},
		Unrecorded: []string{"demo-2.0.data/headers/demo.h"},
	})
}

func TestInspect_Text(t *testing.T) {
	testutil.SetupTestEnv(t)

	out, _, err := run(t, "inspect", inspectFixture(t))
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	for _, want := range []string{
		"demo 2.0",
		"py3-none-any",
		"wheel version:   1.0",
		"root is purelib: true",
		"  purelib  demo/__init__.py",
		"! headers  demo.h",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspect_YAML(t *testing.T) {
	testutil.SetupTestEnv(t)

	out, _, err := run(t, "inspect", "--format", "yaml", inspectFixture(t))
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}

	var report wheelReport
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if report.Name != "demo" || report.Version != "2.0" || !report.RootIsPurelib {
		t.Errorf("report = %+v", report)
	}
	found := false
	for _, f := range report.Files {
		if f.Source == "demo/__init__.py" {
			found = true
			if f.Scheme != "purelib" || !strings.HasPrefix(f.Hash, "sha256=") {
				t.Errorf("file report = %+v", f)
			}
		}
	}
	if !found {
		t.Errorf("demo/__init__.py missing from %+v", report.Files)
	}
}

func TestInspect_UnknownFormat(t *testing.T) {
	testutil.SetupTestEnv(t)

	if _, _, err := run(t, "inspect", "--format", "xml", inspectFixture(t)); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

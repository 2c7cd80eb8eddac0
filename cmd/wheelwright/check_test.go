package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	root := writeConfig(t)

	if _, _, err := run(t, "install", demoWheel(t, nil)); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "check", "demo-1.0.dist-info")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, "No drifts detected") {
		t.Errorf("output = %s", out)
	}

	if err := os.WriteFile(filepath.Join(root, "target", "lib", "demo", "util.py"), []byte("changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err = run(t, "check", "demo-1.0.dist-info")
	if !errors.Is(err, errDrift) {
		t.Fatalf("check error = %v, want errDrift", err)
	}
	if !strings.Contains(out, "[MODIFIED]") {
		t.Errorf("output = %s", out)
	}
}

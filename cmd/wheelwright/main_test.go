package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/platform"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/testutil"
)

type fixedDetector struct{ info *platform.Info }

func (d fixedDetector) Detect(context.Context) (*platform.Info, error) { return d.info, nil }

var linuxHost = fixedDetector{info: &platform.Info{OS: "linux", Arch: "amd64", ArchRaw: "amd64"}}

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr, linuxHost)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeConfig writes a config installing into <root>/env and returns root.
func writeConfig(t *testing.T) string {
	t.Helper()
	root := testutil.SetupTestEnv(t)
	env := filepath.Join(root, "target")

	code := fmt.Sprintf(`
wheelwright = {
  cache_dir = %q,
  executable = %q,
  interpreter = { name = "cpython", version = "3.9.18" },
  paths = {
    purelib = %q,
    platlib = %q,
    scripts = %q,
    data = %q,
    headers = %q,
  },
}
`,
		filepath.Join(root, "cache"),
		filepath.Join(env, "bin", "python"),
		filepath.Join(env, "lib"),
		filepath.Join(env, "lib"),
		filepath.Join(env, "bin"),
		env,
		filepath.Join(env, "include"),
	)
	if err := os.WriteFile(os.Getenv("WHEELWRIGHT_CONFIG"), []byte(code), 0o600); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("output %q missing %s", out, Version)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, _, err := run(t, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestErrorsAreReported(t *testing.T) {
	writeConfig(t)

	_, stderr, err := run(t, "inspect", filepath.Join(t.TempDir(), "missing-1.0-py3-none-any.whl"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(stderr, "Error: ") {
		t.Errorf("stderr = %q, want an Error: line", stderr)
	}
}

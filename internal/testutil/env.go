// Package testutil provides utilities for testing wheelwright in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates isolated config, cache and target directories for
// each test and points the wheelwright environment variables at them.
// This ensures tests never touch the user's real cache or environment.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("WHEELWRIGHT_CONFIG", filepath.Join(tmpDir, "config", "config.lua"))
	t.Setenv("WHEELWRIGHT_CACHE_DIR", filepath.Join(tmpDir, "cache"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "xdg-cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg-config"))
	t.Setenv("WHEELWRIGHT_TEST_MODE", "1")

	dirs := []string{
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "cache"),
		filepath.Join(tmpDir, "target"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Resource limits applied while parsing.
const (
	// MaxConfigSize is the largest config script accepted, in bytes.
	MaxConfigSize = 1 << 20

	// DefaultParseTimeout bounds script execution when the caller's context
	// has no deadline.
	DefaultParseTimeout = 5 * time.Second

	// MaxPlatformTags caps interpreter.platforms.
	MaxPlatformTags = 64

	luaCallStackSize = 256
	luaRegistrySize  = 1024 * 8
)

func checkSize(n int64) error {
	if n > MaxConfigSize {
		return &ValidationError{
			Message: fmt.Sprintf("config too large (%d bytes, maximum is %d)", n, MaxConfigSize),
		}
	}
	return nil
}

// validatePath requires an absolute path without ".." components.
func validatePath(field, p string) error {
	if p == "" {
		return nil
	}
	if !filepath.IsAbs(p) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("path must be absolute: %s", p)}
	}
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return &ValidationError{Field: field, Message: fmt.Sprintf("path traversal not allowed: %s", p)}
		}
	}
	return nil
}

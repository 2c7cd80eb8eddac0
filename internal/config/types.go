package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/platform"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/scheme"
)

// Config is the parsed wheelwright configuration.
type Config struct {
	// CacheDir is the artifact cache root.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// CheckHashes enables RECORD verification during installs.
	CheckHashes bool `json:"check_hashes" yaml:"check_hashes"`

	// Keyring is an OpenPGP keyring used to check detached signatures.
	Keyring string `json:"keyring,omitempty" yaml:"keyring,omitempty"`

	// RequireSignatures fails installs of archives without a signature.
	RequireSignatures bool `json:"require_signatures,omitempty" yaml:"require_signatures,omitempty"`

	Interpreter Interpreter `json:"interpreter" yaml:"interpreter"`
	Paths       Paths       `json:"paths" yaml:"paths"`

	// Executable replaces "#!python" in installed scripts.
	Executable string `json:"executable,omitempty" yaml:"executable,omitempty"`
}

// Interpreter describes the target interpreter.
type Interpreter struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version,omitempty" yaml:"version,omitempty"`
	ABI       string   `json:"abi,omitempty" yaml:"abi,omitempty"`
	Platforms []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

// Paths holds the install root of each scheme.
type Paths struct {
	PureLib string `json:"purelib,omitempty" yaml:"purelib,omitempty"`
	PlatLib string `json:"platlib,omitempty" yaml:"platlib,omitempty"`
	Scripts string `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Data    string `json:"data,omitempty" yaml:"data,omitempty"`
	Headers string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		CacheDir:    DefaultCacheDir(),
		CheckHashes: true,
		Interpreter: Interpreter{Name: platform.DefaultInterpreter},
	}
}

// DefaultCacheDir returns $WHEELWRIGHT_CACHE_DIR, $XDG_CACHE_HOME/wheelwright
// or ~/.cache/wheelwright, in that order.
func DefaultCacheDir() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "wheelwright")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "wheelwright-cache")
	}
	return filepath.Join(home, ".cache", "wheelwright")
}

// DefaultConfigPath returns $WHEELWRIGHT_CONFIG,
// $XDG_CONFIG_HOME/wheelwright/config.lua or ~/.config/wheelwright/config.lua.
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wheelwright", "config.lua")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.lua"
	}
	return filepath.Join(home, ".config", "wheelwright", "config.lua")
}

// Validate checks paths and interpreter settings.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return &ValidationError{Field: luaFieldCacheDir, Message: "cannot be empty"}
	}
	if err := validatePath(luaFieldCacheDir, c.CacheDir); err != nil {
		return err
	}
	if err := validatePath(luaFieldKeyring, c.Keyring); err != nil {
		return err
	}
	if c.RequireSignatures && c.Keyring == "" {
		return &ValidationError{Field: luaFieldRequireSigs, Message: "requires a keyring"}
	}
	if err := validatePath(luaFieldExecutable, c.Executable); err != nil {
		return err
	}
	if c.Interpreter.Name == "" {
		return &ValidationError{Field: "interpreter.name", Message: "cannot be empty"}
	}
	if len(c.Interpreter.Platforms) > MaxPlatformTags {
		return &ValidationError{
			Field:   "interpreter.platforms",
			Message: fmt.Sprintf("too many platform tags (%d), maximum is %d", len(c.Interpreter.Platforms), MaxPlatformTags),
		}
	}
	for i, p := range c.Interpreter.Platforms {
		if p == "" || strings.ContainsAny(p, "-. \t") {
			return &ValidationError{Field: fmt.Sprintf("interpreter.platforms[%d]", i), Message: fmt.Sprintf("invalid platform tag %q", p)}
		}
	}
	for s, p := range c.SchemePaths() {
		if err := validatePath("paths."+s.String(), p); err != nil {
			return err
		}
	}
	return nil
}

// SchemePaths returns the configured roots keyed by scheme. Unset schemes
// are omitted.
func (c *Config) SchemePaths() map[scheme.Scheme]string {
	paths := make(map[scheme.Scheme]string, len(scheme.All))
	for s, p := range map[scheme.Scheme]string{
		scheme.PureLib: c.Paths.PureLib,
		scheme.PlatLib: c.Paths.PlatLib,
		scheme.Scripts: c.Paths.Scripts,
		scheme.Data:    c.Paths.Data,
		scheme.Headers: c.Paths.Headers,
	} {
		if p != "" {
			paths[s] = p
		}
	}
	return paths
}

// Environment builds the install environment for the host described by
// info. The interpreter version must be configured.
func (c *Config) Environment(info *platform.Info) (*platform.Environment, error) {
	if c.Interpreter.Version == "" {
		return nil, &ValidationError{Field: "interpreter.version", Message: "must be set to select archives"}
	}
	return platform.NewEnvironment(c.Interpreter.Name, c.Interpreter.Version, c.Interpreter.ABI, info, c.Interpreter.Platforms)
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

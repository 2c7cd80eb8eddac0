package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/logging"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/platform"
)

// Parser evaluates config scripts with platform detection.
type Parser struct {
	detector platform.Detector
	logger   logging.Logger
}

// NewParser creates a parser. A nil detector leaves the platform table
// undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: logging.Noop()}
}

// WithLogger sets the logger used for parse diagnostics.
func (p *Parser) WithLogger(l logging.Logger) *Parser {
	p.logger = logging.OrNoop(l)
	return p
}

// Load reads the config at path. A missing file yields Default.
func (p *Parser) Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := p.ParseFile(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Debug("no config file, using defaults", "path", path)
		return Default(), nil
	}
	return cfg, err
}

// ParseFile parses the config script at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if err := checkSize(info.Size()); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	p.logger.Debug("parsing config", "path", path, "bytes", len(data))
	return p.ParseString(ctx, string(data))
}

// ParseString parses a config script held in memory.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	if err := checkSize(int64(len(luaCode))); err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate config: %w", ctxErr)
		}
		return nil, &ParseError{Message: "Lua error", Detail: err.Error()}
	}

	cfg, err := extractConfig(L)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global "wheelwright" table over the defaults.
// A script that never assigns the table yields the defaults.
func extractConfig(L *lua.LState) (*Config, error) {
	cfg := Default()

	root := L.GetGlobal(luaGlobal)
	switch root.Type() {
	case lua.LTNil:
		return cfg, nil
	case lua.LTTable:
	default:
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid '%s' table", luaGlobal),
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}
	t := root.(*lua.LTable)

	var err error
	if cfg.CacheDir, err = pathField(t, luaFieldCacheDir, cfg.CacheDir); err != nil {
		return nil, err
	}
	if cfg.Keyring, err = pathField(t, luaFieldKeyring, ""); err != nil {
		return nil, err
	}
	if cfg.Executable, err = pathField(t, luaFieldExecutable, ""); err != nil {
		return nil, err
	}
	if cfg.CheckHashes, err = boolField(t, luaFieldCheckHashes, true); err != nil {
		return nil, err
	}
	if cfg.RequireSignatures, err = boolField(t, luaFieldRequireSigs, false); err != nil {
		return nil, err
	}

	if it, err := tableField(t, luaFieldInterpreter); err != nil {
		return nil, err
	} else if it != nil {
		if cfg.Interpreter, err = extractInterpreter(it, cfg.Interpreter); err != nil {
			return nil, err
		}
	}

	if pt, err := tableField(t, luaFieldPaths); err != nil {
		return nil, err
	} else if pt != nil {
		if cfg.Paths, err = extractPaths(pt); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func extractInterpreter(t *lua.LTable, def Interpreter) (Interpreter, error) {
	var err error
	it := def
	if it.Name, err = stringField(t, luaFieldName, def.Name); err != nil {
		return it, prefixed(luaFieldInterpreter, err)
	}
	if it.Version, err = stringField(t, luaFieldVersion, ""); err != nil {
		return it, prefixed(luaFieldInterpreter, err)
	}
	if it.ABI, err = stringField(t, luaFieldABI, ""); err != nil {
		return it, prefixed(luaFieldInterpreter, err)
	}

	pt, err := tableField(t, luaFieldPlatforms)
	if err != nil {
		return it, prefixed(luaFieldInterpreter, err)
	}
	if pt != nil {
		// Non-string values come from conditionals such as
		// `platform.is_linux and "manylinux2014_x86_64" or nil`.
		pt.ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				it.Platforms = append(it.Platforms, v.String())
			}
		})
	}
	return it, nil
}

func extractPaths(t *lua.LTable) (Paths, error) {
	var p Paths
	fields := []struct {
		name string
		dst  *string
	}{
		{luaFieldPurelib, &p.PureLib},
		{luaFieldPlatlib, &p.PlatLib},
		{luaFieldScripts, &p.Scripts},
		{luaFieldData, &p.Data},
		{luaFieldHeaders, &p.Headers},
	}
	for _, f := range fields {
		v, err := pathField(t, f.name, "")
		if err != nil {
			return p, prefixed(luaFieldPaths, err)
		}
		*f.dst = v
	}
	return p, nil
}

func stringField(t *lua.LTable, name, def string) (string, error) {
	v := t.RawGetString(name)
	switch v.Type() {
	case lua.LTNil:
		return def, nil
	case lua.LTString:
		return v.String(), nil
	default:
		return "", &ValidationError{Field: name, Message: fmt.Sprintf("expected string, got %s", v.Type())}
	}
}

func pathField(t *lua.LTable, name, def string) (string, error) {
	s, err := stringField(t, name, def)
	if err != nil || s == "" {
		return s, err
	}
	return expandHome(s)
}

func boolField(t *lua.LTable, name string, def bool) (bool, error) {
	v := t.RawGetString(name)
	switch v.Type() {
	case lua.LTNil:
		return def, nil
	case lua.LTBool:
		return bool(v.(lua.LBool)), nil
	default:
		return false, &ValidationError{Field: name, Message: fmt.Sprintf("expected boolean, got %s", v.Type())}
	}
}

func tableField(t *lua.LTable, name string) (*lua.LTable, error) {
	v := t.RawGetString(name)
	switch v.Type() {
	case lua.LTNil:
		return nil, nil
	case lua.LTTable:
		return v.(*lua.LTable), nil
	default:
		return nil, &ValidationError{Field: name, Message: fmt.Sprintf("expected table, got %s", v.Type())}
	}
}

func prefixed(parent string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Field: parent + "." + ve.Field, Message: ve.Message}
	}
	return err
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}
	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	return fmt.Sprintf("%s: %s", parseErr.Message, detail)
}

package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Generator renders a Config as a Lua script.
type Generator struct {
	indent string
	now    func() time.Time
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{indent: "  ", now: time.Now}
}

// Generate renders cfg with the default generator.
func Generate(cfg *Config) (string, error) {
	return NewGenerator().Generate(cfg)
}

// Generate renders cfg. Fields holding their default value are written as
// comments so the file documents every knob.
func (g *Generator) Generate(cfg *Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("generate config: nil config")
	}

	var buf bytes.Buffer
	buf.WriteString("-- wheelwright configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")
	buf.WriteString(luaGlobal + " = {\n")

	g.writeString(&buf, 1, luaFieldCacheDir, cfg.CacheDir)
	g.writeBool(&buf, 1, luaFieldCheckHashes, cfg.CheckHashes)
	g.writeOptional(&buf, 1, luaFieldKeyring, cfg.Keyring, "/path/to/trusted.asc")
	g.writeBool(&buf, 1, luaFieldRequireSigs, cfg.RequireSignatures)
	g.writeOptional(&buf, 1, luaFieldExecutable, cfg.Executable, "/usr/bin/python3")
	buf.WriteString("\n")

	g.open(&buf, 1, luaFieldInterpreter)
	g.writeString(&buf, 2, luaFieldName, cfg.Interpreter.Name)
	g.writeOptional(&buf, 2, luaFieldVersion, cfg.Interpreter.Version, "3.12.4")
	g.writeOptional(&buf, 2, luaFieldABI, cfg.Interpreter.ABI, "cp312")
	if len(cfg.Interpreter.Platforms) > 0 {
		g.open(&buf, 2, luaFieldPlatforms)
		for _, p := range cfg.Interpreter.Platforms {
			buf.WriteString(strings.Repeat(g.indent, 3))
			buf.WriteString(quoteLuaString(p))
			buf.WriteString(",\n")
		}
		g.close(&buf, 2)
	}
	g.close(&buf, 1)
	buf.WriteString("\n")

	g.open(&buf, 1, luaFieldPaths)
	g.writeOptional(&buf, 2, luaFieldPurelib, cfg.Paths.PureLib, "/opt/venv/lib/python3.12/site-packages")
	g.writeOptional(&buf, 2, luaFieldPlatlib, cfg.Paths.PlatLib, "/opt/venv/lib/python3.12/site-packages")
	g.writeOptional(&buf, 2, luaFieldScripts, cfg.Paths.Scripts, "/opt/venv/bin")
	g.writeOptional(&buf, 2, luaFieldData, cfg.Paths.Data, "/opt/venv")
	g.writeOptional(&buf, 2, luaFieldHeaders, cfg.Paths.Headers, "/opt/venv/include/site/python3.12")
	g.close(&buf, 1)

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (g *Generator) open(buf *bytes.Buffer, depth int, name string) {
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString(name)
	buf.WriteString(" = {\n")
}

func (g *Generator) close(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString("},\n")
}

func (g *Generator) writeString(buf *bytes.Buffer, depth int, name, value string) {
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.WriteString(quoteLuaString(value))
	buf.WriteString(",\n")
}

func (g *Generator) writeBool(buf *bytes.Buffer, depth int, name string, value bool) {
	buf.WriteString(strings.Repeat(g.indent, depth))
	fmt.Fprintf(buf, "%s = %t,\n", name, value)
}

// writeOptional writes name = value, or a commented example when value is
// empty.
func (g *Generator) writeOptional(buf *bytes.Buffer, depth int, name, value, example string) {
	if value != "" {
		g.writeString(buf, depth, name, value)
		return
	}
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString("-- ")
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.WriteString(quoteLuaString(example))
	buf.WriteString(",\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}

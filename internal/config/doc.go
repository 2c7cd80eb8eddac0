// Package config loads wheelwright's Lua configuration file.
//
// # Overview
//
// The configuration is a Lua script that assigns a global "wheelwright"
// table. Scripts run in a sandboxed gopher-lua VM with a read-only
// "platform" table describing the host, so a single file can serve several
// machines:
//
//	wheelwright = {
//	  cache_dir = "~/.cache/wheelwright",
//	  check_hashes = true,
//	  keyring = "~/.config/wheelwright/trusted.asc",
//	  require_signatures = false,
//	  interpreter = {
//	    name = "cpython",
//	    version = "3.12.4",
//	    platforms = { platform.is_linux and "manylinux2014_x86_64" or nil },
//	  },
//	  executable = "/opt/venv/bin/python",
//	  paths = {
//	    purelib = "/opt/venv/lib/python3.12/site-packages",
//	    platlib = "/opt/venv/lib/python3.12/site-packages",
//	    scripts = "/opt/venv/bin",
//	    data = "/opt/venv",
//	    headers = "/opt/venv/include/site/python3.12",
//	  },
//	}
//
// Every field is optional. Missing fields take the values from Default,
// and a missing file yields Default unchanged.
//
// # Security Model
//
// User code cannot execute commands, touch the filesystem or load other
// code: os, io, debug, require, dofile, loadfile, load and loadstring are
// removed before the script runs. Scripts larger than MaxConfigSize are
// rejected without being executed, and parsing honours context
// cancellation and deadlines (DefaultParseTimeout when none is set).
//
// # Locations
//
//   - Config file: $WHEELWRIGHT_CONFIG, else $XDG_CONFIG_HOME/wheelwright/config.lua,
//     else ~/.config/wheelwright/config.lua
//   - Cache root: $WHEELWRIGHT_CACHE_DIR, else $XDG_CACHE_HOME/wheelwright,
//     else ~/.cache/wheelwright
//
// # Generating Configs
//
// Generate renders a Config back to Lua; "wheelwright config init" uses it
// to write a starter file.
package config

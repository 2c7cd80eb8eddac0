package config

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxedGlobals are removed from every config VM. Without them a script
// cannot run commands, read or write files, or pull in other code.
var sandboxedGlobals = []string{
	"os",
	"io",
	"debug",
	"require",
	"module",
	"package",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"collectgarbage",
}

// sandboxLuaVM strips dangerous globals from L. string, table, math and
// the basic functions stay available.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range sandboxedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a bounded Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: luaCallStackSize,
		RegistrySize:  luaRegistrySize,
	})
	sandboxLuaVM(L)
	return L
}

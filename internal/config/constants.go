package config

// Lua schema field names and globals
const (
	luaGlobal           = "wheelwright"
	luaFieldCacheDir    = "cache_dir"
	luaFieldCheckHashes = "check_hashes"
	luaFieldKeyring     = "keyring"
	luaFieldRequireSigs = "require_signatures"
	luaFieldInterpreter = "interpreter"
	luaFieldName        = "name"
	luaFieldVersion     = "version"
	luaFieldABI         = "abi"
	luaFieldPlatforms   = "platforms"
	luaFieldPaths       = "paths"
	luaFieldExecutable  = "executable"
	luaFieldPurelib     = "purelib"
	luaFieldPlatlib     = "platlib"
	luaFieldScripts     = "scripts"
	luaFieldData        = "data"
	luaFieldHeaders     = "headers"
)

// Environment variables consulted for default locations.
const (
	EnvConfig   = "WHEELWRIGHT_CONFIG"
	EnvCacheDir = "WHEELWRIGHT_CACHE_DIR"
)

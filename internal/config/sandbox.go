package config

import (
	lua "github.com/yuin/gopher-lua"
)

// unsafeGlobals lists every global removed from the config VM: system
// access (os, io), sandbox escapes (debug) and code loading.
var unsafeGlobals = []string{
	"os",
	"io",
	"debug",
	"require",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"module",
	"collectgarbage",
}

// newSandboxedVM creates a Lua VM for evaluating config files. string,
// table and math stay available.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: 256,
		RegistrySize:  8 * 1024,
	})
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

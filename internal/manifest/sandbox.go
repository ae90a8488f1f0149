package manifest

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM strips the VM down to what a declarative manifest needs.
// Manifests must not execute commands, read or write files, or load
// external code; string, table, and math stay available for building
// version strings and platform conditionals.
func sandboxLuaVM(L *lua.LState) {
	// os.execute, os.exit, os.getenv and friends
	L.SetGlobal("os", lua.LNil)

	// io.open, io.popen, io.read and friends
	L.SetGlobal("io", lua.LNil)

	// module loading
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)

	// debug could be used to climb out of the sandbox
	L.SetGlobal("debug", lua.LNil)
}

// newSandboxedVM creates a Lua state with sandboxing applied. This is
// the only way manifest code gets a VM.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}

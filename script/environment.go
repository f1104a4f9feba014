package script

import (
	lua "github.com/yuin/gopher-lua"
)

// Environment is one sandboxed namespace a script runs in
type Environment struct {
	Path    string
	Enabled bool
	Global  bool
	table   *lua.LTable
}

// Table returns the namespace for direct reads and bindings
func (e *Environment) Table() *lua.LTable {
	return e.table
}

// Component attaches an environment to an entity
// Removing the component or destroying the entity releases the environment
type Component struct {
	Env *Environment
}

// Package scope tracks which local variable names are declared at each
// point of a parse.
package scope

import "sort"

// StaticEnv is a scoped set of declared local names. Dynamic scopes
// (blocks, lambdas) see the names of their parent; static scopes (method
// bodies) start empty.
type StaticEnv struct {
	names   map[string]bool
	parent  *StaticEnv
	inherit bool
}

// New creates a new top-level environment.
func New() *StaticEnv {
	return &StaticEnv{names: make(map[string]bool)}
}

// ExtendStatic returns a child scope that does not see any outer names.
func (e *StaticEnv) ExtendStatic() *StaticEnv {
	return &StaticEnv{names: make(map[string]bool), parent: e}
}

// ExtendDynamic returns a child scope whose lookups fall through to e.
func (e *StaticEnv) ExtendDynamic() *StaticEnv {
	return &StaticEnv{names: make(map[string]bool), parent: e, inherit: true}
}

// Unextend returns the enclosing scope, or e itself at the top level.
func (e *StaticEnv) Unextend() *StaticEnv {
	if e.parent == nil {
		return e
	}
	return e.parent
}

// Declare binds name in this scope.
func (e *StaticEnv) Declare(name string) {
	e.names[name] = true
}

// Declared reports whether name is visible from this scope.
func (e *StaticEnv) Declared(name string) bool {
	if e.names[name] {
		return true
	}
	if e.inherit && e.parent != nil {
		return e.parent.Declared(name)
	}
	return false
}

// Names returns the names declared directly in this scope, sorted.
func (e *StaticEnv) Names() []string {
	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Package symbols implements the scope-stack symbol table the type
// checker and code generator both build and query: one global scope
// plus a stack of local (per-procedure) scopes.
package symbols

import "github.com/ajalt/eece6083-compiler/internal/ast"

// Kind distinguishes what a Symbol names.
type Kind int

const (
	VarSymbol Kind = iota
	ProcSymbol
)

// Symbol is one declared name. Exactly one of VarDecl/ProcDecl is set,
// matching Kind.
type Symbol struct {
	Name     string
	Kind     Kind
	IsGlobal bool
	VarDecl  *ast.VarDecl  // set when Kind == VarSymbol; unwraps Param to its inner VarDecl
	ProcDecl *ast.ProcDecl // set when Kind == ProcSymbol
	Param    *ast.Param    // set when this VarSymbol came from a procedure parameter
}

// Scope is one lexical level: the global scope, or one procedure's
// locals (its own name, its parameters, and its local declarations all
// share the same Scope per §4.4).
type Scope struct {
	names map[string]*Symbol
	outer *Scope
}

func newScope(outer *Scope) *Scope {
	return &Scope{names: make(map[string]*Symbol), outer: outer}
}

// Table is the scope stack: Global plus a stack of active local scopes.
// The top of the stack (Current) is the innermost scope currently being
// resolved against.
type Table struct {
	Global  *Scope
	stack   []*Scope
	current *Scope
}

// NewTable returns a Table with only the global scope active.
func NewTable() *Table {
	g := newScope(nil)
	return &Table{Global: g, current: g}
}

// PushScope enters a new local scope (procedure entry).
func (t *Table) PushScope() {
	s := newScope(t.current)
	t.stack = append(t.stack, s)
	t.current = s
}

// PopScope leaves the innermost local scope (procedure exit).
func (t *Table) PopScope() {
	if len(t.stack) == 0 {
		return
	}
	t.stack = t.stack[:len(t.stack)-1]
	if len(t.stack) == 0 {
		t.current = t.Global
	} else {
		t.current = t.stack[len(t.stack)-1]
	}
}

// InGlobalScope reports whether Current is the global scope.
func (t *Table) InGlobalScope() bool { return t.current == t.Global }

// DefinedInCurrentScope reports whether name is already bound in the
// innermost active scope (not an outer one), the redefinition check.
func (t *Table) DefinedInCurrentScope(name string) bool {
	_, ok := t.current.names[name]
	return ok
}

// Define binds name to sym in the innermost active scope.
func (t *Table) Define(name string, sym *Symbol) {
	t.current.names[name] = sym
}

// Resolve looks up name starting at the innermost scope and walking
// outward to Global, matching local-shadows-global.
func (t *Table) Resolve(name string) (*Symbol, bool) {
	for s := t.current; s != nil; s = s.outer {
		if sym, ok := s.names[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Package scope builds the per-file scope graph and resolves every
// identifier use to its owning binding. Resolution runs to completion
// before any detector looks at the result: capture and redirection
// status is only meaningful once every binding in a scope has been
// observed.
package scope

import (
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/types"
)

// Kind classifies a scope.
type Kind uint8

const (
	KindModule Kind = iota
	KindFunction
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	}
	return "unknown"
}

// Scope is one lexical scope. The scope tree lives for a single file's
// analysis pass and is discarded afterward.
type Scope struct {
	Kind     Kind
	Parent   *Scope
	Bindings map[string]*Binding
	// Captured lists names of this scope's bindings read from nested
	// scopes. A one-way relation computed during resolution and only
	// queried afterward.
	Captured map[string]bool
	// redirects maps names declared global/nonlocal in this scope to
	// their target binding in an enclosing scope.
	redirects map[string]*Binding
}

// BindKind records what introduced a binding; it feeds exception-class
// and type resolution.
type BindKind uint8

const (
	BindAssign BindKind = iota
	BindParam
	BindFunc
	BindClass
	BindImport
	BindOther
)

// Binding associates a name with its declaring scope and assignment
// sites.
type Binding struct {
	Name  string
	Scope *Scope
	Kind  BindKind
	// Redirected is set when any scope declares this name global or
	// nonlocal; a redirected binding is never constant.
	Redirected bool
	// Captured is set when a nested scope reads the binding. Capture
	// alone does not disqualify constancy.
	Captured    bool
	Assignments []*Assignment
	// Class is the defining declaration for BindClass bindings.
	Class *pyast.ClassDef
	// ImportPath is the dotted source for BindImport bindings.
	ImportPath string
}

// Assignment is one write site.
type Assignment struct {
	Binding *Binding
	// Value is the assigned source expression; nil when the value is
	// not statically known (augmented assignment, loop target, import,
	// destructuring, function object).
	Value pyast.Expr
	Span  types.Span
	// Conditional marks writes reachable on only some control paths.
	Conditional bool
}

// IsLiteral reports whether the assignment's source is a scalar literal.
func (a *Assignment) IsLiteral() bool {
	if a == nil || a.Value == nil {
		return false
	}
	_, ok := a.Value.(*pyast.Literal)
	return ok
}

// Use is the resolution result for one identifier read.
type Use struct {
	Binding *Binding
	// SameScope is true when the read occurs in the binding's owning
	// scope. Constancy is only ever claimed for same-scope uses.
	SameScope bool
	// Def is the unique reaching definition when exactly one assignment
	// provably executes before the use on every path; nil otherwise.
	Def *Assignment
	// Multiple is set when more than one definition reaches the use.
	Multiple bool
}

// ensure returns the binding for name in s, creating it on first use.
func (s *Scope) ensure(name string) *Binding {
	if b, ok := s.Bindings[name]; ok {
		return b
	}
	b := &Binding{Name: name, Scope: s}
	s.Bindings[name] = b
	return b
}

func newScope(kind Kind, parent *Scope) *Scope {
	return &Scope{
		Kind:      kind,
		Parent:    parent,
		Bindings:  make(map[string]*Binding),
		Captured:  make(map[string]bool),
		redirects: make(map[string]*Binding),
	}
}

// nearestFunction walks outward to the closest enclosing function
// scope, skipping class bodies, stopping short of the module scope.
func (s *Scope) nearestFunction() *Scope {
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		if cur.Kind == KindFunction {
			return cur
		}
		if cur.Kind == KindModule {
			return nil
		}
	}
	return nil
}

// module walks to the root module scope.
func (s *Scope) module() *Scope {
	cur := s
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// lookup resolves a read lexically: the reading scope itself, then
// enclosing function scopes, then the module scope. Class-body scopes
// are not visible from nested function bodies.
func (s *Scope) lookup(name string) *Binding {
	if b, ok := s.redirects[name]; ok {
		return b
	}
	if b, ok := s.Bindings[name]; ok {
		return b
	}
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		if cur.Kind == KindClass {
			continue
		}
		if b, ok := cur.Bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Package exceptions resolves class ancestry against the builtin
// exception hierarchy. Only the first listed base of a class is
// followed, through single-base links, to decide whether a class
// derives from BaseException.
package exceptions

import (
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/scope"
)

// BaseRefKind classifies how a class's first base resolved.
type BaseRefKind int

const (
	// BaseNone: the class lists no bases.
	BaseNone BaseRefKind = iota
	// BaseBuiltin: the first base is a builtin exception class.
	BaseBuiltin
	// BaseClass: the first base is a class declared in this file.
	BaseClass
	// BaseExternal: the first base is an attribute access or other
	// expression naming something outside this file.
	BaseExternal
	// BaseUnresolved: the first base is a name with no known binding
	// and no builtin meaning.
	BaseUnresolved
)

// BaseRef is the resolved first base of a class declaration.
type BaseRef struct {
	Kind  BaseRefKind
	Name  string          // builtin or unresolved name
	Class *pyast.ClassDef // set for BaseClass
}

// Index answers exception-ancestry queries for one resolved file.
type Index struct {
	res  *scope.Resolution
	memo map[*pyast.ClassDef]bool
}

func NewIndex(res *scope.Resolution) *Index {
	return &Index{res: res, memo: make(map[*pyast.ClassDef]bool)}
}

// IsExceptionName reports whether the identifier read denotes a class
// that is, or transitively derives from, a builtin exception. A name
// shadowed by a non-class binding never qualifies.
func (ix *Index) IsExceptionName(n *pyast.Name) bool {
	use := ix.res.UseOf(n)
	if use == nil {
		return false
	}
	if use.Binding == nil {
		return IsBuiltin(n.ID)
	}
	if use.Binding.Kind == scope.BindClass && use.Binding.Class != nil {
		return ix.isExceptionClass(use.Binding.Class, nil)
	}
	return false
}

// FirstBase resolves the first listed base of a class declaration.
func (ix *Index) FirstBase(def *pyast.ClassDef) BaseRef {
	if len(def.Bases) == 0 {
		return BaseRef{Kind: BaseNone}
	}
	base, ok := def.Bases[0].(*pyast.Name)
	if !ok {
		return BaseRef{Kind: BaseExternal}
	}
	use := ix.res.UseOf(base)
	if use == nil || use.Binding == nil {
		if IsBuiltin(base.ID) {
			return BaseRef{Kind: BaseBuiltin, Name: base.ID}
		}
		return BaseRef{Kind: BaseUnresolved, Name: base.ID}
	}
	if use.Binding.Kind == scope.BindClass && use.Binding.Class != nil {
		return BaseRef{Kind: BaseClass, Class: use.Binding.Class}
	}
	return BaseRef{Kind: BaseUnresolved, Name: base.ID}
}

func (ix *Index) isExceptionClass(def *pyast.ClassDef, seen map[*pyast.ClassDef]bool) bool {
	if v, ok := ix.memo[def]; ok {
		return v
	}
	if seen[def] {
		return false
	}
	if seen == nil {
		seen = make(map[*pyast.ClassDef]bool)
	}
	seen[def] = true

	var result bool
	switch ref := ix.FirstBase(def); ref.Kind {
	case BaseBuiltin:
		result = true
	case BaseClass:
		result = ix.isExceptionClass(ref.Class, seen)
	default:
		result = false
	}
	ix.memo[def] = result
	return result
}

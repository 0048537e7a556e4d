package scope

import (
	"fmt"

	"github.com/standardbeagle/pycheck/internal/pyast"
)

// ClassDecl is a class definition together with the scope it was
// declared in.
type ClassDecl struct {
	Def *pyast.ClassDef
	In  *Scope
}

// Resolution is the completed scope graph for one file. It is built in
// full before detection starts and is read-only afterward.
type Resolution struct {
	ModuleScope *Scope
	uses        map[*pyast.Name]*Use
	classes     []ClassDecl
}

// UseOf returns the resolution record for an identifier read, or nil
// for binding occurrences and names in unresolved fragments.
func (r *Resolution) UseOf(n *pyast.Name) *Use {
	return r.uses[n]
}

// Classes lists class declarations in source order.
func (r *Resolution) Classes() []ClassDecl {
	return r.classes
}

// ConstantLiteral reports the unique literal reaching this use, when
// the use is constant: same-scope, exactly one reaching definition,
// literal-valued, binding neither redirected nor module-level.
func (u *Use) ConstantLiteral() (*pyast.Literal, *Assignment, bool) {
	if u == nil || u.Binding == nil || !u.SameScope || u.Multiple || u.Def == nil {
		return nil, nil, false
	}
	if u.Binding.Redirected || u.Binding.Scope.Kind == KindModule {
		return nil, nil, false
	}
	lit, ok := u.Def.Value.(*pyast.Literal)
	if !ok {
		return nil, nil, false
	}
	return lit, u.Def, true
}

// UniqueDef returns the sole expression reaching this use, literal or
// not. Module-level bindings qualify only when assigned exactly once in
// the whole file, since cross-call rebinding cannot be excluded.
func (u *Use) UniqueDef() (pyast.Expr, bool) {
	if u == nil || u.Binding == nil || !u.SameScope || u.Multiple || u.Def == nil || u.Def.Value == nil {
		return nil, false
	}
	if u.Binding.Redirected {
		return nil, false
	}
	if u.Binding.Scope.Kind == KindModule && len(u.Binding.Assignments) != 1 {
		return nil, false
	}
	return u.Def.Value, true
}

// Resolve builds the scope graph for a module. A structural invariant
// violation aborts this file only; the error carries the panic context.
func Resolve(mod *pyast.Module) (res *Resolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("scope resolution aborted: %v", r)
		}
	}()

	rv := &resolver{
		uses: make(map[*pyast.Name]*Use),
	}
	moduleScope := newScope(KindModule, nil)
	rv.collect(moduleScope, mod.Body)
	rv.resolveScope(moduleScope, mod.Body)

	return &Resolution{
		ModuleScope: moduleScope,
		uses:        rv.uses,
		classes:     rv.classes,
	}, nil
}

type resolver struct {
	uses    map[*pyast.Name]*Use
	classes []ClassDecl
	// scopes maps definition nodes to their inner scope, filled during
	// collection and reused during resolution.
	scopes map[pyast.Node]*Scope
}

// ---- pass 1: binding collection ----

// collect records every name bound in the scope, applies explicit
// global/nonlocal redirection, then descends into nested definitions.
// Nested scopes are collected only after the enclosing scope is
// complete, so nonlocal targets always resolve against full scopes.
func (rv *resolver) collect(s *Scope, body []pyast.Stmt) {
	if rv.scopes == nil {
		rv.scopes = make(map[pyast.Node]*Scope)
	}
	var nested []pyast.Stmt // FuncDef and ClassDef, in order
	rv.scanRedirects(s, body)
	rv.scanWrites(s, body, &nested)
	for _, stmt := range nested {
		switch def := stmt.(type) {
		case *pyast.FuncDef:
			child := newScope(KindFunction, s)
			rv.scopes[def] = child
			for _, p := range def.Params {
				b := child.ensure(p.Name)
				b.Kind = BindParam
			}
			rv.collect(child, def.Body)
		case *pyast.ClassDef:
			child := newScope(KindClass, s)
			rv.scopes[def] = child
			rv.collect(child, def.Body)
		}
	}
}

// scanRedirects applies global/nonlocal statements of this scope.
// Redirection immediately marks the target binding non-constant.
func (rv *resolver) scanRedirects(s *Scope, body []pyast.Stmt) {
	for _, stmt := range body {
		switch st := stmt.(type) {
		case *pyast.Global:
			for _, n := range st.Names {
				target := s.module().ensure(n.ID)
				target.Redirected = true
				s.redirects[n.ID] = target
			}
		case *pyast.Nonlocal:
			for _, n := range st.Names {
				target := rv.nonlocalTarget(s, n.ID)
				if target == nil {
					continue
				}
				target.Redirected = true
				s.redirects[n.ID] = target
			}
		case *pyast.If:
			rv.scanRedirects(s, st.Body)
			rv.scanRedirects(s, st.Else)
		case *pyast.While:
			rv.scanRedirects(s, st.Body)
			rv.scanRedirects(s, st.Else)
		case *pyast.For:
			rv.scanRedirects(s, st.Body)
			rv.scanRedirects(s, st.Else)
		case *pyast.Try:
			rv.scanRedirects(s, st.Body)
			for _, h := range st.Handlers {
				rv.scanRedirects(s, h.Body)
			}
			rv.scanRedirects(s, st.Else)
			rv.scanRedirects(s, st.Finally)
		case *pyast.With:
			rv.scanRedirects(s, st.Body)
		case *pyast.OpaqueStmt:
			rv.scanRedirects(s, st.Body)
		}
	}
}

// nonlocalTarget finds the binding a nonlocal statement redirects to:
// the nearest enclosing function scope that binds the name.
func (rv *resolver) nonlocalTarget(s *Scope, name string) *Binding {
	for cur := s.nearestFunction(); cur != nil; cur = cur.nearestFunction() {
		if b, ok := cur.Bindings[name]; ok {
			return b
		}
	}
	// Tolerate a dangling nonlocal (a syntax error at runtime) by
	// binding in the nearest function scope, keeping analysis going.
	if fn := s.nearestFunction(); fn != nil {
		return fn.ensure(name)
	}
	return nil
}

// bindLocal creates or reuses the binding a write in scope s targets,
// honoring redirection.
func (rv *resolver) bindLocal(s *Scope, name string) *Binding {
	if target, ok := s.redirects[name]; ok {
		return target
	}
	return s.ensure(name)
}

func (rv *resolver) scanWrites(s *Scope, body []pyast.Stmt, nested *[]pyast.Stmt) {
	for _, stmt := range body {
		switch st := stmt.(type) {
		case *pyast.FuncDef:
			b := rv.bindLocal(s, st.Name)
			b.Kind = BindFunc
			*nested = append(*nested, st)
		case *pyast.ClassDef:
			b := rv.bindLocal(s, st.Name)
			b.Kind = BindClass
			b.Class = st
			rv.scanTargetsExpr(s, nested, st.Bases...)
			*nested = append(*nested, st)
		case *pyast.Assign:
			rv.scanTargetsExpr(s, nested, st.Value)
			for _, t := range st.Targets {
				rv.bindTarget(s, t)
			}
			for _, t := range st.Unpacked {
				rv.bindTarget(s, t)
			}
		case *pyast.AugAssign:
			rv.scanTargetsExpr(s, nested, st.Value)
			rv.bindTarget(s, st.Target)
		case *pyast.ExprStmt:
			rv.scanTargetsExpr(s, nested, st.Value)
		case *pyast.If:
			rv.scanTargetsExpr(s, nested, st.Cond)
			rv.scanWrites(s, st.Body, nested)
			rv.scanWrites(s, st.Else, nested)
		case *pyast.While:
			rv.scanTargetsExpr(s, nested, st.Cond)
			rv.scanWrites(s, st.Body, nested)
			rv.scanWrites(s, st.Else, nested)
		case *pyast.For:
			rv.scanTargetsExpr(s, nested, st.Iter)
			rv.bindTarget(s, st.Target)
			rv.scanWrites(s, st.Body, nested)
			rv.scanWrites(s, st.Else, nested)
		case *pyast.Try:
			rv.scanWrites(s, st.Body, nested)
			for _, h := range st.Handlers {
				rv.scanTargetsExpr(s, nested, h.Type)
				if h.Alias != nil {
					rv.bindLocal(s, h.Alias.ID)
				}
				rv.scanWrites(s, h.Body, nested)
			}
			rv.scanWrites(s, st.Else, nested)
			rv.scanWrites(s, st.Finally, nested)
		case *pyast.With:
			rv.scanTargetsExpr(s, nested, st.Items...)
			for _, alias := range st.Aliases {
				rv.bindLocal(s, alias.ID)
			}
			rv.scanWrites(s, st.Body, nested)
		case *pyast.Raise:
			rv.scanTargetsExpr(s, nested, st.Exc, st.Cause)
		case *pyast.Return:
			rv.scanTargetsExpr(s, nested, st.Value)
		case *pyast.Import:
			for _, ib := range st.Bindings {
				b := rv.bindLocal(s, ib.Name.ID)
				b.Kind = BindImport
				b.ImportPath = ib.Path
			}
		case *pyast.Delete:
			for _, t := range st.Targets {
				rv.bindTarget(s, t)
			}
		case *pyast.OpaqueStmt:
			rv.scanTargetsExpr(s, nested, st.Exprs...)
			for _, n := range st.BoundNames {
				rv.bindLocal(s, n.ID)
			}
			rv.scanWrites(s, st.Body, nested)
		}
	}
}

func (rv *resolver) bindTarget(s *Scope, target pyast.Expr) {
	if name, ok := target.(*pyast.Name); ok {
		rv.bindLocal(s, name.ID)
	}
	// Attribute and subscript targets mutate objects, not bindings.
}

// scanTargetsExpr finds walrus targets and nested lambdas inside
// expressions during collection.
func (rv *resolver) scanTargetsExpr(s *Scope, nested *[]pyast.Stmt, exprs ...pyast.Expr) {
	for _, e := range exprs {
		switch ex := e.(type) {
		case nil:
		case *pyast.NamedExpr:
			if ex.Target != nil {
				rv.bindLocal(s, ex.Target.ID)
			}
			rv.scanTargetsExpr(s, nested, ex.Value)
		case *pyast.BoolOp:
			rv.scanTargetsExpr(s, nested, ex.Left, ex.Right)
		case *pyast.Not:
			rv.scanTargetsExpr(s, nested, ex.Operand)
		case *pyast.Compare:
			rv.scanTargetsExpr(s, nested, ex.Operands...)
		case *pyast.IfExp:
			rv.scanTargetsExpr(s, nested, ex.Cond, ex.Body, ex.Else)
		case *pyast.Call:
			rv.scanTargetsExpr(s, nested, ex.Func)
			rv.scanTargetsExpr(s, nested, ex.Args...)
		case *pyast.Attribute:
			rv.scanTargetsExpr(s, nested, ex.Value)
		case *pyast.Subscript:
			rv.scanTargetsExpr(s, nested, ex.Value, ex.Index)
		case *pyast.Display:
			rv.scanTargetsExpr(s, nested, ex.Elts...)
			rv.scanTargetsExpr(s, nested, ex.Splats...)
		case *pyast.Yield:
			rv.scanTargetsExpr(s, nested, ex.Value)
		case *pyast.OpaqueExpr:
			rv.scanTargetsExpr(s, nested, ex.Exprs...)
			for _, fn := range ex.Funcs {
				*nested = append(*nested, fn)
			}
		}
	}
}

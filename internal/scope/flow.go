package scope

import (
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/types"
)

// defState is the per-binding flow fact: the unique definition reaching
// the current program point, or "multiple" when paths disagree. The
// zero value means unassigned so far.
type defState struct {
	def      *Assignment
	multiple bool
}

// flow maps the current scope's bindings to their reaching state.
type flow map[*Binding]defState

func (f flow) clone() flow {
	out := make(flow, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// merge folds another branch's outcome into f. Bindings whose reaching
// definitions differ across branches become multiple: a use after the
// merge point has no single provable definition.
func (f flow) merge(other flow) {
	for b, ov := range other {
		fv, ok := f[b]
		if !ok {
			if ov.def != nil || ov.multiple {
				f[b] = defState{multiple: true}
			}
			continue
		}
		if fv.multiple || ov.multiple || fv.def != ov.def {
			f[b] = defState{multiple: true}
		}
	}
	for b, fv := range f {
		if _, ok := other[b]; !ok && (fv.def != nil || fv.multiple) {
			f[b] = defState{multiple: true}
		}
	}
}

// demote marks every binding in set as having multiple reaching
// definitions, used at loop entry where iteration count is unknown.
func (f flow) demote(set map[*Binding]bool) {
	for b := range set {
		f[b] = defState{multiple: true}
	}
}

// ---- pass 2: use resolution and reaching definitions ----

func (rv *resolver) resolveScope(s *Scope, body []pyast.Stmt) {
	rv.walkStmts(s, make(flow), body, false)
}

func (rv *resolver) walkStmts(s *Scope, st flow, body []pyast.Stmt, conditional bool) {
	for _, stmt := range body {
		rv.walkStmt(s, st, stmt, conditional)
	}
}

func (rv *resolver) walkStmt(s *Scope, st flow, stmt pyast.Stmt, conditional bool) {
	switch node := stmt.(type) {
	case *pyast.FuncDef:
		rv.write(s, st, node.Name, nil, node.NameSpan, conditional)
		rv.resolveNested(node)
	case *pyast.ClassDef:
		rv.walkExprs(s, st, node.Bases...)
		rv.write(s, st, node.Name, nil, node.NameSpan, conditional)
		if child, ok := rv.scopes[node]; ok {
			rv.classes = append(rv.classes, ClassDecl{Def: node, In: s})
			rv.walkStmts(child, make(flow), node.Body, false)
		}
	case *pyast.Assign:
		rv.walkExprs(s, st, node.Value)
		for _, t := range node.Targets {
			rv.writeTarget(s, st, t, node.Value, conditional)
		}
		for _, t := range node.Unpacked {
			rv.writeTarget(s, st, t, nil, conditional)
		}
	case *pyast.AugAssign:
		// The produced value derives from the prior one; the target is
		// both read and rewritten with a non-literal value.
		rv.walkExprs(s, st, node.Target, node.Value)
		rv.writeTarget(s, st, node.Target, nil, conditional)
	case *pyast.ExprStmt:
		rv.walkExprs(s, st, node.Value)
	case *pyast.If:
		rv.walkExprs(s, st, node.Cond)
		elseSt := st.clone()
		rv.walkStmts(s, st, node.Body, true)
		rv.walkStmts(s, elseSt, node.Else, true)
		st.merge(elseSt)
	case *pyast.While:
		assigned := rv.assignedIn(s, node.Body)
		pre := st.clone()
		st.demote(assigned)
		rv.walkExprs(s, st, node.Cond)
		rv.walkStmts(s, st, node.Body, true)
		st.merge(pre)
		rv.walkStmts(s, st, node.Else, true)
	case *pyast.For:
		rv.walkExprs(s, st, node.Iter)
		assigned := rv.assignedIn(s, node.Body)
		pre := st.clone()
		st.demote(assigned)
		rv.writeTarget(s, st, node.Target, nil, true)
		rv.walkStmts(s, st, node.Body, true)
		st.merge(pre)
		rv.walkStmts(s, st, node.Else, true)
	case *pyast.Try:
		entry := st.clone()
		bodyAssigned := rv.assignedIn(s, node.Body)
		rv.walkStmts(s, st, node.Body, true)
		rv.walkStmts(s, st, node.Else, true)
		for _, h := range node.Handlers {
			// A handler can be entered from any point in the body.
			handlerSt := entry.clone()
			handlerSt.demote(bodyAssigned)
			rv.walkExprs(s, handlerSt, h.Type)
			if h.Alias != nil {
				rv.write(s, handlerSt, h.Alias.ID, nil, h.Alias.Span(), true)
			}
			rv.walkStmts(s, handlerSt, h.Body, true)
			st.merge(handlerSt)
		}
		rv.walkStmts(s, st, node.Finally, conditional)
	case *pyast.With:
		rv.walkExprs(s, st, node.Items...)
		for _, alias := range node.Aliases {
			rv.write(s, st, alias.ID, nil, alias.Span(), conditional)
		}
		rv.walkStmts(s, st, node.Body, conditional)
	case *pyast.Raise:
		rv.walkExprs(s, st, node.Exc, node.Cause)
	case *pyast.Return:
		rv.walkExprs(s, st, node.Value)
	case *pyast.Import:
		for _, ib := range node.Bindings {
			rv.write(s, st, ib.Name.ID, nil, ib.Name.Span(), conditional)
		}
	case *pyast.Delete:
		for _, t := range node.Targets {
			if name, ok := t.(*pyast.Name); ok {
				if b := rv.bindLocal(s, name.ID); b.Scope == s {
					st[b] = defState{multiple: true}
				}
				continue
			}
			rv.walkExprs(s, st, t)
		}
	case *pyast.OpaqueStmt:
		rv.walkExprs(s, st, node.Exprs...)
		for _, n := range node.BoundNames {
			if b := rv.bindLocal(s, n.ID); b.Scope == s {
				b.Assignments = append(b.Assignments, &Assignment{
					Binding: b, Span: n.Span(), Conditional: true,
				})
				st[b] = defState{multiple: true}
			}
		}
		bodySt := st.clone()
		rv.walkStmts(s, bodySt, node.Body, true)
		st.merge(bodySt)
	}
}

// resolveNested runs resolution for a nested function body with its
// own fresh flow: the body executes at call time, so outer flow facts
// do not apply inside and body writes do not leak out.
func (rv *resolver) resolveNested(def *pyast.FuncDef) {
	child, ok := rv.scopes[def]
	if !ok {
		return
	}
	childFlow := make(flow)
	for _, p := range def.Params {
		b := child.ensure(p.Name)
		asg := &Assignment{Binding: b, Span: p.Span()}
		b.Assignments = append(b.Assignments, asg)
		childFlow[b] = defState{def: asg}
	}
	rv.walkStmts(child, childFlow, def.Body, false)
}

func (rv *resolver) writeTarget(s *Scope, st flow, target pyast.Expr, value pyast.Expr, conditional bool) {
	switch t := target.(type) {
	case *pyast.Name:
		rv.write(s, st, t.ID, value, t.Span(), conditional)
	case nil:
	default:
		// Attribute/subscript targets mutate objects; the base
		// expression is still a read.
		rv.walkExprs(s, st, t)
	}
}

func (rv *resolver) write(s *Scope, st flow, name string, value pyast.Expr, span types.Span, conditional bool) {
	b := rv.bindLocal(s, name)
	asg := &Assignment{Binding: b, Value: value, Span: span, Conditional: conditional}
	b.Assignments = append(b.Assignments, asg)
	if b.Scope == s {
		st[b] = defState{def: asg}
	}
}

// assignedIn collects this scope's bindings written anywhere in the
// subtree, without descending into nested definitions.
func (rv *resolver) assignedIn(s *Scope, body []pyast.Stmt) map[*Binding]bool {
	out := make(map[*Binding]bool)
	var visitTargets func(exprs ...pyast.Expr)
	record := func(name string) {
		if b := rv.bindLocal(s, name); b.Scope == s {
			out[b] = true
		}
	}
	visitTargets = func(exprs ...pyast.Expr) {
		for _, e := range exprs {
			switch ex := e.(type) {
			case *pyast.Name:
				record(ex.ID)
			case *pyast.NamedExpr:
				if ex.Target != nil {
					record(ex.Target.ID)
				}
				visitTargets(ex.Value)
			}
		}
	}
	var visit func(body []pyast.Stmt)
	visit = func(body []pyast.Stmt) {
		for _, stmt := range body {
			switch node := stmt.(type) {
			case *pyast.FuncDef:
				record(node.Name)
			case *pyast.ClassDef:
				record(node.Name)
			case *pyast.Assign:
				visitTargets(node.Targets...)
				visitTargets(node.Unpacked...)
				visitNamedExprs(node.Value, visitTargets)
			case *pyast.AugAssign:
				visitTargets(node.Target)
			case *pyast.ExprStmt:
				visitNamedExprs(node.Value, visitTargets)
			case *pyast.If:
				visitNamedExprs(node.Cond, visitTargets)
				visit(node.Body)
				visit(node.Else)
			case *pyast.While:
				visitNamedExprs(node.Cond, visitTargets)
				visit(node.Body)
				visit(node.Else)
			case *pyast.For:
				visitTargets(node.Target)
				visit(node.Body)
				visit(node.Else)
			case *pyast.Try:
				visit(node.Body)
				for _, h := range node.Handlers {
					if h.Alias != nil {
						record(h.Alias.ID)
					}
					visit(h.Body)
				}
				visit(node.Else)
				visit(node.Finally)
			case *pyast.With:
				for _, alias := range node.Aliases {
					record(alias.ID)
				}
				visit(node.Body)
			case *pyast.Import:
				for _, ib := range node.Bindings {
					record(ib.Name.ID)
				}
			case *pyast.Delete:
				visitTargets(node.Targets...)
			case *pyast.OpaqueStmt:
				for _, n := range node.BoundNames {
					record(n.ID)
				}
				visit(node.Body)
			}
		}
	}
	visit(body)
	return out
}

// visitNamedExprs finds walrus targets buried in an expression.
func visitNamedExprs(e pyast.Expr, visitTargets func(...pyast.Expr)) {
	switch ex := e.(type) {
	case nil:
	case *pyast.NamedExpr:
		visitTargets(ex)
	case *pyast.BoolOp:
		visitNamedExprs(ex.Left, visitTargets)
		visitNamedExprs(ex.Right, visitTargets)
	case *pyast.Not:
		visitNamedExprs(ex.Operand, visitTargets)
	case *pyast.Compare:
		for _, op := range ex.Operands {
			visitNamedExprs(op, visitTargets)
		}
	case *pyast.IfExp:
		visitNamedExprs(ex.Cond, visitTargets)
		visitNamedExprs(ex.Body, visitTargets)
		visitNamedExprs(ex.Else, visitTargets)
	case *pyast.Call:
		visitNamedExprs(ex.Func, visitTargets)
		for _, a := range ex.Args {
			visitNamedExprs(a, visitTargets)
		}
	case *pyast.Attribute:
		visitNamedExprs(ex.Value, visitTargets)
	case *pyast.Subscript:
		visitNamedExprs(ex.Value, visitTargets)
		visitNamedExprs(ex.Index, visitTargets)
	case *pyast.Display:
		for _, el := range ex.Elts {
			visitNamedExprs(el, visitTargets)
		}
		for _, sp := range ex.Splats {
			visitNamedExprs(sp, visitTargets)
		}
	case *pyast.Yield:
		visitNamedExprs(ex.Value, visitTargets)
	case *pyast.OpaqueExpr:
		for _, sub := range ex.Exprs {
			visitNamedExprs(sub, visitTargets)
		}
	}
}

// walkExprs records a Use for every identifier read and applies walrus
// writes in evaluation order.
func (rv *resolver) walkExprs(s *Scope, st flow, exprs ...pyast.Expr) {
	for _, e := range exprs {
		switch ex := e.(type) {
		case nil:
		case *pyast.Name:
			rv.read(s, st, ex)
		case *pyast.Literal:
		case *pyast.NamedExpr:
			rv.walkExprs(s, st, ex.Value)
			if ex.Target != nil {
				rv.write(s, st, ex.Target.ID, ex.Value, ex.Target.Span(), false)
			}
		case *pyast.BoolOp:
			rv.walkExprs(s, st, ex.Left, ex.Right)
		case *pyast.Not:
			rv.walkExprs(s, st, ex.Operand)
		case *pyast.Compare:
			rv.walkExprs(s, st, ex.Operands...)
		case *pyast.IfExp:
			rv.walkExprs(s, st, ex.Cond, ex.Body, ex.Else)
		case *pyast.Call:
			rv.walkExprs(s, st, ex.Func)
			rv.walkExprs(s, st, ex.Args...)
		case *pyast.Attribute:
			rv.walkExprs(s, st, ex.Value)
		case *pyast.Subscript:
			rv.walkExprs(s, st, ex.Value, ex.Index)
		case *pyast.Display:
			rv.walkExprs(s, st, ex.Elts...)
			rv.walkExprs(s, st, ex.Splats...)
		case *pyast.Yield:
			rv.walkExprs(s, st, ex.Value)
		case *pyast.OpaqueExpr:
			rv.walkExprs(s, st, ex.Exprs...)
			for _, fn := range ex.Funcs {
				rv.resolveNested(fn)
			}
		}
	}
}

// read resolves one identifier read and snapshots its reaching state.
func (rv *resolver) read(s *Scope, st flow, n *pyast.Name) {
	b := s.lookup(n.ID)
	use := &Use{Binding: b}
	if b != nil {
		use.SameScope = b.Scope == s
		if !use.SameScope {
			b.Captured = true
			b.Scope.Captured[b.Name] = true
		} else {
			ds := st[b]
			use.Def = ds.def
			use.Multiple = ds.multiple
		}
	}
	rv.uses[n] = use
}

package rules

import (
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/scope"
	"github.com/standardbeagle/pycheck/internal/types"
)

const (
	constantConditionMessage = "Replace this expression; used as a condition it will always be constant."
	lastAssignmentMessage    = "Last assignment."
)

// constantCondition flags branch and conditional-expression tests
// whose truthiness is statically determined: literals, displays with
// a known emptiness, and reads of bindings a single literal reaches.
//
// The expression walk threads a truthiness flag: an expression is a
// condition when its result is consumed only for truthiness. Inside
// an and/or chain every operand except the chain-final one is a
// condition; the final operand is one only when the chain's own
// result is. Loop tests are deliberately not checked: `while True`
// is an idiom, not a defect.
type constantCondition struct {
	res      *scope.Resolution
	findings *[]types.Finding
}

func (d *constantCondition) run(mod *pyast.Module) {
	d.stmts(mod.Body)
}

func (d *constantCondition) stmts(body []pyast.Stmt) {
	for _, stmt := range body {
		switch node := stmt.(type) {
		case *pyast.FuncDef:
			for _, p := range node.Params {
				d.expr(p.Default, false)
			}
			d.stmts(node.Body)
		case *pyast.ClassDef:
			d.exprs(false, node.Bases...)
			d.stmts(node.Body)
		case *pyast.Assign:
			d.expr(node.Value, false)
		case *pyast.AugAssign:
			d.expr(node.Value, false)
		case *pyast.ExprStmt:
			d.expr(node.Value, false)
		case *pyast.If:
			d.expr(node.Cond, true)
			d.stmts(node.Body)
			d.stmts(node.Else)
		case *pyast.While:
			d.expr(node.Cond, false)
			d.stmts(node.Body)
			d.stmts(node.Else)
		case *pyast.For:
			d.expr(node.Iter, false)
			d.stmts(node.Body)
			d.stmts(node.Else)
		case *pyast.Try:
			d.stmts(node.Body)
			for _, h := range node.Handlers {
				d.expr(h.Type, false)
				d.stmts(h.Body)
			}
			d.stmts(node.Else)
			d.stmts(node.Finally)
		case *pyast.With:
			d.exprs(false, node.Items...)
			d.stmts(node.Body)
		case *pyast.Raise:
			d.expr(node.Exc, false)
			d.expr(node.Cause, false)
		case *pyast.Return:
			d.expr(node.Value, false)
		case *pyast.Delete:
			d.exprs(false, node.Targets...)
		case *pyast.OpaqueStmt:
			d.exprs(false, node.Exprs...)
			d.stmts(node.Body)
		}
	}
}

func (d *constantCondition) exprs(truthy bool, exprs ...pyast.Expr) {
	for _, e := range exprs {
		d.expr(e, truthy)
	}
}

func (d *constantCondition) expr(e pyast.Expr, truthy bool) {
	switch ex := e.(type) {
	case nil:
	case *pyast.BoolOp:
		leftTruthy := true
		if !truthy && ex.Op == "or" {
			// `X and Y or Z` consumed as a value is the pre-2.5
			// ternary idiom: Y is the chain's result there, not a
			// condition.
			if left, ok := ex.Left.(*pyast.BoolOp); ok && left.Op == "and" {
				leftTruthy = false
			}
		}
		d.expr(ex.Left, leftTruthy)
		d.expr(ex.Right, truthy)
	case *pyast.Not:
		d.expr(ex.Operand, true)
	case *pyast.IfExp:
		d.expr(ex.Cond, true)
		d.expr(ex.Body, truthy)
		d.expr(ex.Else, truthy)
	case *pyast.Literal:
		if truthy {
			d.report(ex.Span(), nil)
		}
	case *pyast.Display:
		if truthy && constantDisplay(ex) {
			d.report(ex.Span(), nil)
		}
		d.exprs(false, ex.Elts...)
		d.exprs(false, ex.Splats...)
	case *pyast.Name:
		if !truthy {
			return
		}
		if lit, _, ok := d.res.UseOf(ex).ConstantLiteral(); ok {
			d.report(ex.Span(), &types.SecondarySpan{
				Span:    lit.Span(),
				Message: lastAssignmentMessage,
			})
		}
	case *pyast.Call:
		// Call results are opaque, builtin constructors included.
		d.expr(ex.Func, false)
		d.exprs(false, ex.Args...)
	case *pyast.Attribute:
		d.expr(ex.Value, false)
	case *pyast.Subscript:
		d.expr(ex.Value, false)
		d.expr(ex.Index, false)
	case *pyast.Compare:
		d.exprs(false, ex.Operands...)
	case *pyast.Yield:
		d.expr(ex.Value, false)
	case *pyast.NamedExpr:
		d.expr(ex.Value, false)
	case *pyast.OpaqueExpr:
		d.exprs(false, ex.Exprs...)
		for _, fn := range ex.Funcs {
			d.stmts(fn.Body)
		}
	}
}

// constantDisplay reports whether a display's truthiness is statically
// known: no splats means the element count decides, and any plain
// element alongside splats guarantees non-emptiness. A splat-only
// display stays unknown.
func constantDisplay(d *pyast.Display) bool {
	if len(d.Splats) == 0 {
		return true
	}
	return len(d.Elts) > 0
}

func (d *constantCondition) report(span types.Span, secondary *types.SecondarySpan) {
	f := types.Finding{
		Rule:    types.RuleConstantCondition,
		Primary: span,
		Message: constantConditionMessage,
	}
	if secondary != nil {
		f.Secondary = []types.SecondarySpan{*secondary}
	}
	*d.findings = append(*d.findings, f)
}

package rules

import (
	"fmt"

	"github.com/standardbeagle/pycheck/internal/purity"
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/scope"
	"github.com/standardbeagle/pycheck/internal/types"
)

const mustBeUsedMessage = `The return value of "%s" must be used.`

// ignoredPureOperation flags a standalone statement whose operation is
// known free of side effects, making the discarded result the
// statement's only product. Covers calls to pure builtins, pure
// methods (instance or unbound style), subscript reads, and
// membership tests.
//
// One exemption models the probe-then-react idiom: directly inside a
// try body of at most two statements every statement is exempt, and
// in any try body the last statement is exempt. Handler, else and
// finally bodies get no exemption.
type ignoredPureOperation struct {
	res      *scope.Resolution
	infer    *typeInferrer
	findings *[]types.Finding
}

func (d *ignoredPureOperation) run(mod *pyast.Module) {
	d.block(mod.Body, false)
}

func (d *ignoredPureOperation) block(body []pyast.Stmt, inTry bool) {
	for i, stmt := range body {
		exempt := inTry && (len(body) <= 2 || i == len(body)-1)
		d.stmt(stmt, exempt)
	}
}

func (d *ignoredPureOperation) stmt(stmt pyast.Stmt, exempt bool) {
	switch node := stmt.(type) {
	case *pyast.ExprStmt:
		if exempt {
			return
		}
		d.exprStmt(node)
	case *pyast.Try:
		d.block(node.Body, true)
		for _, h := range node.Handlers {
			d.block(h.Body, false)
		}
		d.block(node.Else, false)
		d.block(node.Finally, false)
	case *pyast.FuncDef:
		d.block(node.Body, false)
	case *pyast.ClassDef:
		d.block(node.Body, false)
	case *pyast.If:
		d.block(node.Body, false)
		d.block(node.Else, false)
	case *pyast.While:
		d.block(node.Body, false)
		d.block(node.Else, false)
	case *pyast.For:
		d.block(node.Body, false)
		d.block(node.Else, false)
	case *pyast.With:
		d.block(node.Body, false)
	case *pyast.OpaqueStmt:
		d.block(node.Body, false)
	}
}

// exprStmt checks one statement expression. A bare tuple statement
// discards every element, so each is checked on its own.
func (d *ignoredPureOperation) exprStmt(es *pyast.ExprStmt) {
	if tup, ok := es.Value.(*pyast.Display); ok && tup.Kind == pyast.DisplayTuple {
		for _, elt := range tup.Elts {
			d.check(elt)
		}
		return
	}
	d.check(es.Value)
}

func (d *ignoredPureOperation) check(e pyast.Expr) {
	switch ex := e.(type) {
	case *pyast.Call:
		d.checkCall(ex)
	case *pyast.Subscript:
		if t, ok := d.infer.containerType(ex.Value, "__getitem__"); ok && purity.PureSubscript(t) {
			d.report(ex.Span(), "__getitem__")
		}
	case *pyast.Compare:
		if len(ex.Ops) != 1 || (ex.Ops[0] != "in" && ex.Ops[0] != "not in") {
			return
		}
		if t, ok := d.infer.containerType(ex.Operands[1], "__contains__"); ok && purity.PureMembership(t) {
			d.report(ex.Span(), "__contains__")
		}
	}
}

func (d *ignoredPureOperation) checkCall(call *pyast.Call) {
	switch fn := call.Func.(type) {
	case *pyast.Name:
		// A local rebinding of the builtin name shadows it.
		use := d.res.UseOf(fn)
		if use != nil && use.Binding == nil && purity.PureFunction(fn.ID) {
			d.report(fn.Span(), fn.ID)
		}
	case *pyast.Attribute:
		if recv, ok := fn.Value.(*pyast.Name); ok {
			// Unbound style: the receiver is the type itself, as in
			// str.islower(x).
			if use := d.res.UseOf(recv); use != nil && use.Binding == nil {
				if purity.PureMethod(recv.ID, fn.Attr) {
					d.report(fn.AttrSpan, fn.Attr)
					return
				}
			}
		}
		if t, ok := d.infer.builtinType(fn.Value); ok && purity.PureMethod(t, fn.Attr) {
			d.report(fn.AttrSpan, fn.Attr)
		}
	}
}

func (d *ignoredPureOperation) report(span types.Span, name string) {
	*d.findings = append(*d.findings, types.Finding{
		Rule:    types.RuleIgnoredPureOperation,
		Primary: span,
		Message: fmt.Sprintf(mustBeUsedMessage, name),
	})
}

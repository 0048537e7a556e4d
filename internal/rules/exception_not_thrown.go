package rules

import (
	"github.com/standardbeagle/pycheck/internal/exceptions"
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/types"
)

const exceptionNotThrownMessage = "Throw this exception or remove this useless statement."

// exceptionNotThrown flags a standalone statement whose discarded
// value is an exception: either a constructor call on an exception
// class or a bare reference to one. Raise operands, call arguments,
// assignment values, returns, yields and lambda bodies are never
// statement expressions, so those positions are exempt structurally.
type exceptionNotThrown struct {
	index    *exceptions.Index
	findings *[]types.Finding
}

func (d *exceptionNotThrown) run(mod *pyast.Module) {
	eachStmt(mod.Body, func(stmt pyast.Stmt) {
		es, ok := stmt.(*pyast.ExprStmt)
		if !ok {
			return
		}
		var name *pyast.Name
		switch v := es.Value.(type) {
		case *pyast.Call:
			name, _ = v.Func.(*pyast.Name)
		case *pyast.Name:
			name = v
		}
		if name == nil || !d.index.IsExceptionName(name) {
			return
		}
		*d.findings = append(*d.findings, types.Finding{
			Rule:    types.RuleExceptionNotThrown,
			Primary: es.Value.Span(),
			Message: exceptionNotThrownMessage,
		})
	})
}

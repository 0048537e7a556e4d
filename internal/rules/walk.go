package rules

import "github.com/standardbeagle/pycheck/internal/pyast"

// eachStmt invokes fn on every statement in the block and, depth
// first, in every nested block including function and class bodies.
func eachStmt(body []pyast.Stmt, fn func(pyast.Stmt)) {
	for _, stmt := range body {
		fn(stmt)
		switch node := stmt.(type) {
		case *pyast.FuncDef:
			eachStmt(node.Body, fn)
		case *pyast.ClassDef:
			eachStmt(node.Body, fn)
		case *pyast.If:
			eachStmt(node.Body, fn)
			eachStmt(node.Else, fn)
		case *pyast.While:
			eachStmt(node.Body, fn)
			eachStmt(node.Else, fn)
		case *pyast.For:
			eachStmt(node.Body, fn)
			eachStmt(node.Else, fn)
		case *pyast.Try:
			eachStmt(node.Body, fn)
			for _, h := range node.Handlers {
				eachStmt(h.Body, fn)
			}
			eachStmt(node.Else, fn)
			eachStmt(node.Finally, fn)
		case *pyast.With:
			eachStmt(node.Body, fn)
		case *pyast.OpaqueStmt:
			eachStmt(node.Body, fn)
		}
	}
}

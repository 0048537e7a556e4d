package pyparse

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/types"
)

// lowerer converts the tree-sitter CST into pyast nodes. Every unknown
// construct degrades to an opaque node that still exposes nested reads,
// writes, and blocks, so resolution never misses a binding.
type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *tree_sitter.Node) string {
	return string(l.src[n.StartByte():n.EndByte()])
}

func (l *lowerer) spanOf(n *tree_sitter.Node) types.Span {
	start := n.StartPosition()
	end := n.EndPosition()
	return types.Span{
		StartByte: uint(n.StartByte()),
		EndByte:   uint(n.EndByte()),
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
	}
}

func (l *lowerer) base(n *tree_sitter.Node) pyast.Base {
	return pyast.Base{Loc: l.spanOf(n)}
}

// lowerBlock lowers the statements of a module or block node.
func (l *lowerer) lowerBlock(n *tree_sitter.Node) []pyast.Stmt {
	if n == nil {
		return nil
	}
	var out []pyast.Stmt
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, l.lowerStmt(child)...)
	}
	return out
}

func (l *lowerer) lowerStmt(n *tree_sitter.Node) []pyast.Stmt {
	switch n.Kind() {
	case "expression_statement":
		return l.lowerExprStmt(n)
	case "if_statement":
		return []pyast.Stmt{l.lowerIf(n)}
	case "while_statement":
		stmt := &pyast.While{
			Base: l.base(n),
			Cond: l.lowerExpr(n.ChildByFieldName("condition")),
			Body: l.lowerBlock(n.ChildByFieldName("body")),
		}
		stmt.Else = l.lowerElseClauses(n)
		return []pyast.Stmt{stmt}
	case "for_statement":
		stmt := &pyast.For{
			Base:   l.base(n),
			Target: l.lowerExpr(n.ChildByFieldName("left")),
			Iter:   l.lowerExpr(n.ChildByFieldName("right")),
			Body:   l.lowerBlock(n.ChildByFieldName("body")),
		}
		stmt.Else = l.lowerElseClauses(n)
		return []pyast.Stmt{stmt}
	case "try_statement":
		return []pyast.Stmt{l.lowerTry(n)}
	case "with_statement":
		return []pyast.Stmt{l.lowerWith(n)}
	case "function_definition":
		return []pyast.Stmt{l.lowerFuncDef(n)}
	case "class_definition":
		return []pyast.Stmt{l.lowerClassDef(n)}
	case "decorated_definition":
		return l.lowerDecorated(n)
	case "return_statement":
		stmt := &pyast.Return{Base: l.base(n)}
		if n.NamedChildCount() > 0 {
			stmt.Value = l.lowerExprOrList(n.NamedChild(0))
		}
		return []pyast.Stmt{stmt}
	case "raise_statement":
		stmt := &pyast.Raise{Base: l.base(n)}
		if cause := n.ChildByFieldName("cause"); cause != nil {
			stmt.Cause = l.lowerExpr(cause)
		}
		if n.NamedChildCount() > 0 {
			first := n.NamedChild(0)
			if cause := n.ChildByFieldName("cause"); cause == nil || first.StartByte() != cause.StartByte() {
				stmt.Exc = l.lowerExprOrList(first)
			}
		}
		return []pyast.Stmt{stmt}
	case "global_statement":
		return []pyast.Stmt{&pyast.Global{Base: l.base(n), Names: l.identifierList(n)}}
	case "nonlocal_statement":
		return []pyast.Stmt{&pyast.Nonlocal{Base: l.base(n), Names: l.identifierList(n)}}
	case "import_statement":
		return []pyast.Stmt{l.lowerImport(n)}
	case "import_from_statement":
		return []pyast.Stmt{l.lowerImportFrom(n)}
	case "future_import_statement":
		return []pyast.Stmt{&pyast.Pass{Base: l.base(n)}}
	case "delete_statement":
		stmt := &pyast.Delete{Base: l.base(n)}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			stmt.Targets = append(stmt.Targets, l.lowerExpr(n.NamedChild(i)))
		}
		return []pyast.Stmt{stmt}
	case "pass_statement", "break_statement", "continue_statement":
		return []pyast.Stmt{&pyast.Pass{Base: l.base(n)}}
	case "assert_statement":
		op := &pyast.OpaqueStmt{Base: l.base(n)}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			op.Exprs = append(op.Exprs, l.lowerExpr(n.NamedChild(i)))
		}
		return []pyast.Stmt{op}
	case "match_statement":
		return []pyast.Stmt{l.lowerMatch(n)}
	default:
		return []pyast.Stmt{l.lowerOpaqueStmt(n)}
	}
}

// lowerExprStmt unwraps an expression_statement, which in the grammar
// also hosts assignments, augmented assignments, and bare yields. A
// bare tuple statement (`a, b`) keeps its elements as direct children
// of the statement node, not under an expression_list.
func (l *lowerer) lowerExprStmt(n *tree_sitter.Node) []pyast.Stmt {
	var children []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return nil
	}
	if len(children) > 1 {
		d := &pyast.Display{Base: l.base(n), Kind: pyast.DisplayTuple}
		for _, child := range children {
			if child.Kind() == "list_splat" {
				d.Splats = append(d.Splats, l.lowerSplat(child))
			} else {
				d.Elts = append(d.Elts, l.lowerExpr(child))
			}
		}
		return []pyast.Stmt{&pyast.ExprStmt{Base: l.base(n), Value: d}}
	}
	inner := children[0]
	switch inner.Kind() {
	case "assignment":
		if stmt := l.lowerAssignment(inner); stmt != nil {
			return []pyast.Stmt{stmt}
		}
		return nil
	case "augmented_assignment":
		return []pyast.Stmt{&pyast.AugAssign{
			Base:   l.base(inner),
			Target: l.lowerExpr(inner.ChildByFieldName("left")),
			Op:     l.operatorText(inner.ChildByFieldName("operator")),
			Value:  l.lowerExpr(inner.ChildByFieldName("right")),
		}}
	default:
		return []pyast.Stmt{&pyast.ExprStmt{
			Base:  l.base(n),
			Value: l.lowerExprOrList(inner),
		}}
	}
}

// lowerAssignment flattens chained targets (`x = y = v`) and expands
// tuple targets. Annotation-only statements (`x: int`) bind nothing and
// lower to nil.
func (l *lowerer) lowerAssignment(n *tree_sitter.Node) pyast.Stmt {
	stmt := &pyast.Assign{Base: l.base(n)}
	cur := n
	for {
		left := cur.ChildByFieldName("left")
		if left != nil {
			switch left.Kind() {
			case "pattern_list", "tuple_pattern", "list_pattern":
				stmt.Unpacked = append(stmt.Unpacked, l.lowerTargets(left)...)
			default:
				stmt.Targets = append(stmt.Targets, l.lowerTargets(left)...)
			}
		}
		right := cur.ChildByFieldName("right")
		if right == nil {
			// `x: int` annotation without a value.
			return nil
		}
		if right.Kind() == "assignment" {
			cur = right
			continue
		}
		stmt.Value = l.lowerExprOrList(right)
		return stmt
	}
}

// lowerTargets expands pattern lists and tuple patterns into the
// individual target expressions.
func (l *lowerer) lowerTargets(n *tree_sitter.Node) []pyast.Expr {
	switch n.Kind() {
	case "pattern_list", "tuple_pattern", "list_pattern":
		var out []pyast.Expr
		for i := uint(0); i < n.NamedChildCount(); i++ {
			out = append(out, l.lowerTargets(n.NamedChild(i))...)
		}
		return out
	case "list_splat_pattern":
		if n.NamedChildCount() > 0 {
			return l.lowerTargets(n.NamedChild(0))
		}
		return nil
	default:
		return []pyast.Expr{l.lowerExpr(n)}
	}
}

func (l *lowerer) lowerIf(n *tree_sitter.Node) *pyast.If {
	stmt := &pyast.If{
		Base: l.base(n),
		Cond: l.lowerExpr(n.ChildByFieldName("condition")),
		Body: l.lowerBlock(n.ChildByFieldName("consequence")),
	}
	tail := stmt
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "elif_clause":
			elif := &pyast.If{
				Base: l.base(child),
				Cond: l.lowerExpr(child.ChildByFieldName("condition")),
				Body: l.lowerBlock(child.ChildByFieldName("consequence")),
			}
			tail.Else = []pyast.Stmt{elif}
			tail = elif
		case "else_clause":
			tail.Else = l.lowerBlock(child.ChildByFieldName("body"))
		}
	}
	return stmt
}

func (l *lowerer) lowerElseClauses(n *tree_sitter.Node) []pyast.Stmt {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "else_clause" {
			return l.lowerBlock(child.ChildByFieldName("body"))
		}
	}
	return nil
}

func (l *lowerer) lowerTry(n *tree_sitter.Node) *pyast.Try {
	stmt := &pyast.Try{
		Base: l.base(n),
		Body: l.lowerBlock(n.ChildByFieldName("body")),
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "except_clause", "except_group_clause":
			stmt.Handlers = append(stmt.Handlers, l.lowerExcept(child))
		case "else_clause":
			stmt.Else = l.lowerBlock(child.ChildByFieldName("body"))
		case "finally_clause":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				if b := child.NamedChild(j); b.Kind() == "block" {
					stmt.Finally = l.lowerBlock(b)
				}
			}
		}
	}
	return stmt
}

func (l *lowerer) lowerExcept(n *tree_sitter.Node) *pyast.ExceptHandler {
	h := &pyast.ExceptHandler{Base: l.base(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "block":
			h.Body = l.lowerBlock(child)
		case "as_pattern":
			// `except ValueError as e`
			if child.NamedChildCount() > 0 {
				h.Type = l.lowerExpr(child.NamedChild(0))
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				h.Alias = l.aliasName(alias)
			}
		default:
			if h.Type == nil {
				h.Type = l.lowerExpr(child)
			}
		}
	}
	return h
}

// aliasName digs the identifier out of an as_pattern_target wrapper.
func (l *lowerer) aliasName(n *tree_sitter.Node) *pyast.Name {
	if n.Kind() == "identifier" {
		return &pyast.Name{Base: l.base(n), ID: l.text(n)}
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if got := l.aliasName(n.NamedChild(i)); got != nil {
			return got
		}
	}
	return nil
}

func (l *lowerer) lowerWith(n *tree_sitter.Node) *pyast.With {
	stmt := &pyast.With{
		Base: l.base(n),
		Body: l.lowerBlock(n.ChildByFieldName("body")),
	}
	var visitItems func(node *tree_sitter.Node)
	visitItems = func(node *tree_sitter.Node) {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch child.Kind() {
			case "with_clause":
				visitItems(child)
			case "with_item":
				value := child.ChildByFieldName("value")
				if value == nil && child.NamedChildCount() > 0 {
					value = child.NamedChild(0)
				}
				if value != nil && value.Kind() == "as_pattern" {
					if value.NamedChildCount() > 0 {
						stmt.Items = append(stmt.Items, l.lowerExpr(value.NamedChild(0)))
					}
					if alias := value.ChildByFieldName("alias"); alias != nil {
						if name := l.aliasName(alias); name != nil {
							stmt.Aliases = append(stmt.Aliases, name)
						}
					}
				} else if value != nil {
					stmt.Items = append(stmt.Items, l.lowerExpr(value))
				}
			}
		}
	}
	visitItems(n)
	return stmt
}

func (l *lowerer) lowerFuncDef(n *tree_sitter.Node) *pyast.FuncDef {
	nameNode := n.ChildByFieldName("name")
	fn := &pyast.FuncDef{
		Base: l.base(n),
		Body: l.lowerBlock(n.ChildByFieldName("body")),
	}
	if nameNode != nil {
		fn.Name = l.text(nameNode)
		fn.NameSpan = l.spanOf(nameNode)
	}
	fn.Params = l.lowerParams(n.ChildByFieldName("parameters"))
	return fn
}

func (l *lowerer) lowerParams(n *tree_sitter.Node) []*pyast.Param {
	if n == nil {
		return nil
	}
	var out []*pyast.Param
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "identifier":
			out = append(out, &pyast.Param{Base: l.base(child), Name: l.text(child)})
		case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
			if name := l.aliasName(child); name != nil {
				out = append(out, &pyast.Param{Base: l.base(child), Name: name.ID})
			}
		case "default_parameter", "typed_default_parameter":
			p := &pyast.Param{Base: l.base(child)}
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				if name := l.aliasName(nameNode); name != nil {
					p.Name = name.ID
				}
			}
			if value := child.ChildByFieldName("value"); value != nil {
				p.Default = l.lowerExpr(value)
			}
			if p.Name != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (l *lowerer) lowerClassDef(n *tree_sitter.Node) *pyast.ClassDef {
	nameNode := n.ChildByFieldName("name")
	cls := &pyast.ClassDef{
		Base: l.base(n),
		Body: l.lowerBlock(n.ChildByFieldName("body")),
	}
	if nameNode != nil {
		cls.Name = l.text(nameNode)
		cls.NameSpan = l.spanOf(nameNode)
	}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			child := supers.NamedChild(i)
			if child.Kind() == "keyword_argument" {
				// metaclass=... is not a base.
				continue
			}
			cls.Bases = append(cls.Bases, l.lowerExpr(child))
		}
	}
	return cls
}

// lowerDecorated keeps decorator expressions visible to resolution by
// emitting them as opaque statements ahead of the definition.
func (l *lowerer) lowerDecorated(n *tree_sitter.Node) []pyast.Stmt {
	var out []pyast.Stmt
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "decorator" {
			op := &pyast.OpaqueStmt{Base: l.base(child)}
			for j := uint(0); j < child.NamedChildCount(); j++ {
				op.Exprs = append(op.Exprs, l.lowerExpr(child.NamedChild(j)))
			}
			out = append(out, op)
		}
	}
	if def := n.ChildByFieldName("definition"); def != nil {
		out = append(out, l.lowerStmt(def)...)
	}
	return out
}

func (l *lowerer) lowerImport(n *tree_sitter.Node) *pyast.Import {
	stmt := &pyast.Import{Base: l.base(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "dotted_name":
			path := l.text(child)
			// `import a.b` binds `a`.
			head := path
			if idx := strings.IndexByte(head, '.'); idx >= 0 {
				head = head[:idx]
			}
			stmt.Bindings = append(stmt.Bindings, pyast.ImportBinding{
				Name: &pyast.Name{Base: l.base(child), ID: head},
				Path: path,
			})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			stmt.Bindings = append(stmt.Bindings, pyast.ImportBinding{
				Name: &pyast.Name{Base: l.base(aliasNode), ID: l.text(aliasNode)},
				Path: l.text(nameNode),
			})
		}
	}
	return stmt
}

func (l *lowerer) lowerImportFrom(n *tree_sitter.Node) *pyast.Import {
	stmt := &pyast.Import{Base: l.base(n)}
	module := ""
	if moduleNode := n.ChildByFieldName("module_name"); moduleNode != nil {
		module = l.text(moduleNode)
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if moduleNode := n.ChildByFieldName("module_name"); moduleNode != nil &&
			child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := l.text(child)
			stmt.Bindings = append(stmt.Bindings, pyast.ImportBinding{
				Name: &pyast.Name{Base: l.base(child), ID: name},
				Path: module + "." + name,
			})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			stmt.Bindings = append(stmt.Bindings, pyast.ImportBinding{
				Name: &pyast.Name{Base: l.base(aliasNode), ID: l.text(aliasNode)},
				Path: module + "." + l.text(nameNode),
			})
		}
	}
	return stmt
}

// lowerMatch keeps match statements conservative: the subject stays
// visible as a read, case bodies are real blocks, and every identifier
// inside a pattern is assumed to be a capture write.
func (l *lowerer) lowerMatch(n *tree_sitter.Node) *pyast.OpaqueStmt {
	op := &pyast.OpaqueStmt{Base: l.base(n)}
	if subject := n.ChildByFieldName("subject"); subject != nil {
		op.Exprs = append(op.Exprs, l.lowerExpr(subject))
	}
	var walk func(node *tree_sitter.Node, inPattern bool)
	walk = func(node *tree_sitter.Node, inPattern bool) {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch {
			case child.Kind() == "block":
				op.Body = append(op.Body, l.lowerBlock(child)...)
			case child.Kind() == "identifier" && inPattern:
				op.BoundNames = append(op.BoundNames, &pyast.Name{Base: l.base(child), ID: l.text(child)})
			default:
				walk(child, inPattern || strings.Contains(child.Kind(), "pattern"))
			}
		}
	}
	walk(n, false)
	return op
}

func (l *lowerer) lowerOpaqueStmt(n *tree_sitter.Node) *pyast.OpaqueStmt {
	op := &pyast.OpaqueStmt{Base: l.base(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "block" {
			op.Body = append(op.Body, l.lowerBlock(child)...)
		} else {
			op.Exprs = append(op.Exprs, l.lowerExpr(child))
		}
	}
	return op
}

func (l *lowerer) identifierList(n *tree_sitter.Node) []*pyast.Name {
	var out []*pyast.Name
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "identifier" {
			out = append(out, &pyast.Name{Base: l.base(child), ID: l.text(child)})
		}
	}
	return out
}

func (l *lowerer) operatorText(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return l.text(n)
}

// lowerExprOrList lowers an expression, folding a bare expression_list
// (`a, b` without parentheses) into a tuple display.
func (l *lowerer) lowerExprOrList(n *tree_sitter.Node) pyast.Expr {
	if n != nil && n.Kind() == "expression_list" {
		d := &pyast.Display{Base: l.base(n), Kind: pyast.DisplayTuple}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child.Kind() == "list_splat" {
				d.Splats = append(d.Splats, l.lowerSplat(child))
			} else {
				d.Elts = append(d.Elts, l.lowerExpr(child))
			}
		}
		return d
	}
	return l.lowerExpr(n)
}

package pyparse

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pycheck/internal/pyast"
)

func (l *lowerer) lowerExpr(n *tree_sitter.Node) pyast.Expr {
	if n == nil {
		return &pyast.OpaqueExpr{}
	}
	switch n.Kind() {
	case "identifier":
		return &pyast.Name{Base: l.base(n), ID: l.text(n)}
	case "integer":
		return &pyast.Literal{Base: l.base(n), Kind: pyast.LitInt, Raw: l.text(n)}
	case "float":
		return &pyast.Literal{Base: l.base(n), Kind: pyast.LitFloat, Raw: l.text(n)}
	case "true", "false":
		return &pyast.Literal{Base: l.base(n), Kind: pyast.LitBool, Raw: l.text(n)}
	case "none":
		return &pyast.Literal{Base: l.base(n), Kind: pyast.LitNone, Raw: l.text(n)}
	case "string":
		return l.lowerString(n)
	case "concatenated_string":
		return l.lowerConcatenatedString(n)
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return l.lowerExpr(n.NamedChild(0))
		}
		return &pyast.OpaqueExpr{Base: l.base(n)}
	case "list":
		return l.lowerDisplay(n, pyast.DisplayList)
	case "set":
		return l.lowerDisplay(n, pyast.DisplaySet)
	case "tuple":
		return l.lowerDisplay(n, pyast.DisplayTuple)
	case "dictionary":
		return l.lowerDict(n)
	case "boolean_operator":
		return &pyast.BoolOp{
			Base:  l.base(n),
			Op:    l.operatorText(n.ChildByFieldName("operator")),
			Left:  l.lowerExpr(n.ChildByFieldName("left")),
			Right: l.lowerExpr(n.ChildByFieldName("right")),
		}
	case "not_operator":
		return &pyast.Not{
			Base:    l.base(n),
			Operand: l.lowerExpr(n.ChildByFieldName("argument")),
		}
	case "comparison_operator":
		return l.lowerComparison(n)
	case "conditional_expression":
		// `body if cond else orelse`: three named children in that order.
		if n.NamedChildCount() == 3 {
			return &pyast.IfExp{
				Base: l.base(n),
				Body: l.lowerExpr(n.NamedChild(0)),
				Cond: l.lowerExpr(n.NamedChild(1)),
				Else: l.lowerExpr(n.NamedChild(2)),
			}
		}
		return l.lowerOpaqueExpr(n)
	case "call":
		return l.lowerCall(n)
	case "attribute":
		out := &pyast.Attribute{
			Base:  l.base(n),
			Value: l.lowerExpr(n.ChildByFieldName("object")),
		}
		if attrNode := n.ChildByFieldName("attribute"); attrNode != nil {
			out.Attr = l.text(attrNode)
			out.AttrSpan = l.spanOf(attrNode)
		}
		return out
	case "subscript":
		sub := &pyast.Subscript{
			Base:  l.base(n),
			Value: l.lowerExpr(n.ChildByFieldName("value")),
		}
		if idx := n.ChildByFieldName("subscript"); idx != nil {
			sub.Index = l.lowerExpr(idx)
		} else {
			sub.Index = &pyast.OpaqueExpr{Base: l.base(n)}
		}
		return sub
	case "slice":
		return l.lowerOpaqueExpr(n)
	case "lambda":
		fn := &pyast.FuncDef{
			Base:     l.base(n),
			Name:     "<lambda>",
			NameSpan: l.spanOf(n),
			Params:   l.lowerParams(n.ChildByFieldName("parameters")),
			IsLambda: true,
		}
		if body := n.ChildByFieldName("body"); body != nil {
			fn.Body = []pyast.Stmt{&pyast.Return{
				Base:  l.base(body),
				Value: l.lowerExpr(body),
			}}
		}
		return &pyast.OpaqueExpr{Base: l.base(n), Funcs: []*pyast.FuncDef{fn}}
	case "named_expression":
		ne := &pyast.NamedExpr{Base: l.base(n)}
		if nameNode := n.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == "identifier" {
			ne.Target = &pyast.Name{Base: l.base(nameNode), ID: l.text(nameNode)}
		}
		ne.Value = l.lowerExpr(n.ChildByFieldName("value"))
		if ne.Target == nil {
			return l.lowerOpaqueExpr(n)
		}
		return ne
	case "yield":
		y := &pyast.Yield{Base: l.base(n)}
		if n.NamedChildCount() > 0 {
			y.Value = l.lowerExprOrList(n.NamedChild(0))
		}
		return y
	case "await":
		if n.NamedChildCount() > 0 {
			return l.lowerExpr(n.NamedChild(0))
		}
		return &pyast.OpaqueExpr{Base: l.base(n)}
	default:
		return l.lowerOpaqueExpr(n)
	}
}

func (l *lowerer) lowerSplat(n *tree_sitter.Node) pyast.Expr {
	if n.NamedChildCount() > 0 {
		return l.lowerExpr(n.NamedChild(0))
	}
	return &pyast.OpaqueExpr{Base: l.base(n)}
}

func (l *lowerer) lowerDisplay(n *tree_sitter.Node, kind pyast.DisplayKind) *pyast.Display {
	d := &pyast.Display{Base: l.base(n), Kind: kind}
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

func (l *lowerer) lowerDict(n *tree_sitter.Node) *pyast.Display {
	d := &pyast.Display{Base: l.base(n), Kind: pyast.DisplayDict}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "pair":
			// One plain entry; key and value stay visible as reads.
			entry := &pyast.OpaqueExpr{Base: l.base(child)}
			if key := child.ChildByFieldName("key"); key != nil {
				entry.Exprs = append(entry.Exprs, l.lowerExpr(key))
			}
			if value := child.ChildByFieldName("value"); value != nil {
				entry.Exprs = append(entry.Exprs, l.lowerExpr(value))
			}
			d.Elts = append(d.Elts, entry)
		case "dictionary_splat":
			d.Splats = append(d.Splats, l.lowerSplat(child))
		}
	}
	return d
}

// lowerString distinguishes plain/bytes literals from f-strings with
// interpolation, which are runtime values and lower to opaque.
func (l *lowerer) lowerString(n *tree_sitter.Node) pyast.Expr {
	kind := pyast.LitStr
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "interpolation":
			return l.lowerOpaqueExpr(n)
		case "string_start":
			prefix := strings.ToLower(l.text(child))
			if strings.Contains(prefix, "b") {
				kind = pyast.LitBytes
			}
		}
	}
	return &pyast.Literal{Base: l.base(n), Kind: kind, Raw: l.text(n)}
}

func (l *lowerer) lowerConcatenatedString(n *tree_sitter.Node) pyast.Expr {
	kind := pyast.LitStr
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() != "string" {
			continue
		}
		part := l.lowerString(child)
		lit, ok := part.(*pyast.Literal)
		if !ok {
			return l.lowerOpaqueExpr(n)
		}
		if lit.Kind == pyast.LitBytes {
			kind = pyast.LitBytes
		}
	}
	return &pyast.Literal{Base: l.base(n), Kind: kind, Raw: l.text(n)}
}

func (l *lowerer) lowerComparison(n *tree_sitter.Node) *pyast.Compare {
	cmp := &pyast.Compare{Base: l.base(n)}
	var tokens []string
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		if child.IsNamed() {
			cmp.Operands = append(cmp.Operands, l.lowerExpr(child))
			continue
		}
		tokens = append(tokens, child.Kind())
	}
	// `not in` and `is not` arrive as two tokens.
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) && (tokens[i] == "not" && tokens[i+1] == "in" ||
			tokens[i] == "is" && tokens[i+1] == "not") {
			cmp.Ops = append(cmp.Ops, tokens[i]+" "+tokens[i+1])
			i++
			continue
		}
		cmp.Ops = append(cmp.Ops, tokens[i])
	}
	return cmp
}

func (l *lowerer) lowerCall(n *tree_sitter.Node) *pyast.Call {
	call := &pyast.Call{
		Base: l.base(n),
		Func: l.lowerExpr(n.ChildByFieldName("function")),
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	if args.Kind() == "generator_expression" {
		call.Args = append(call.Args, l.lowerOpaqueExpr(args))
		return call
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		child := args.NamedChild(i)
		switch child.Kind() {
		case "keyword_argument":
			if value := child.ChildByFieldName("value"); value != nil {
				call.Args = append(call.Args, l.lowerExpr(value))
			}
		case "list_splat", "dictionary_splat":
			call.Args = append(call.Args, l.lowerSplat(child))
		case "comment":
		default:
			call.Args = append(call.Args, l.lowerExpr(child))
		}
	}
	return call
}

// lowerOpaqueExpr preserves nested reads and lambda scopes of an
// unmodeled expression.
func (l *lowerer) lowerOpaqueExpr(n *tree_sitter.Node) *pyast.OpaqueExpr {
	op := &pyast.OpaqueExpr{Base: l.base(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "comment", "string_start", "string_content", "string_end":
			continue
		}
		expr := l.lowerExpr(child)
		if inner, ok := expr.(*pyast.OpaqueExpr); ok && len(inner.Funcs) > 0 && len(inner.Exprs) == 0 {
			op.Funcs = append(op.Funcs, inner.Funcs...)
			continue
		}
		op.Exprs = append(op.Exprs, expr)
	}
	return op
}

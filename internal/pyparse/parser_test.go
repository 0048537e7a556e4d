package pyparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pycheck/internal/pyast"
)

func parse(t *testing.T, src string) *pyast.Module {
	t.Helper()
	mod, err := Parse([]byte(src))
	require.NoError(t, err)
	return mod
}

func TestParseLiterals(t *testing.T) {
	mod := parse(t, "x = 42\ny = 1.5\nz = True\ns = 'hi'\nb = b'raw'\nn = None\n")
	require.Len(t, mod.Body, 6)

	kinds := []pyast.LiteralKind{
		pyast.LitInt, pyast.LitFloat, pyast.LitBool,
		pyast.LitStr, pyast.LitBytes, pyast.LitNone,
	}
	for i, want := range kinds {
		asg, ok := mod.Body[i].(*pyast.Assign)
		require.True(t, ok, "statement %d", i)
		lit, ok := asg.Value.(*pyast.Literal)
		require.True(t, ok, "statement %d", i)
		require.Equal(t, want, lit.Kind, "statement %d", i)
	}
}

func TestParseDisplays(t *testing.T) {
	mod := parse(t, "a = [1, 2]\nb = {3}\nc = (4, 5)\nd = {'k': 1}\n")
	wantKinds := []pyast.DisplayKind{
		pyast.DisplayList, pyast.DisplaySet, pyast.DisplayTuple, pyast.DisplayDict,
	}
	wantElts := []int{2, 1, 2, 1}
	for i := range wantKinds {
		asg := mod.Body[i].(*pyast.Assign)
		disp, ok := asg.Value.(*pyast.Display)
		require.True(t, ok, "statement %d", i)
		require.Equal(t, wantKinds[i], disp.Kind)
		require.Len(t, disp.Elts, wantElts[i])
		require.Empty(t, disp.Splats)
	}
}

func TestParseSplatPartition(t *testing.T) {
	mod := parse(t, "a = [1, *p]\nb = {**p, **q}\n")

	list := mod.Body[0].(*pyast.Assign).Value.(*pyast.Display)
	require.Len(t, list.Elts, 1)
	require.Len(t, list.Splats, 1)

	dict := mod.Body[1].(*pyast.Assign).Value.(*pyast.Display)
	require.Empty(t, dict.Elts)
	require.Len(t, dict.Splats, 2)
}

func TestParseBooleanChain(t *testing.T) {
	mod := parse(t, "x = a and b or c\n")
	or, ok := mod.Body[0].(*pyast.Assign).Value.(*pyast.BoolOp)
	require.True(t, ok)
	require.Equal(t, "or", or.Op)
	and, ok := or.Left.(*pyast.BoolOp)
	require.True(t, ok)
	require.Equal(t, "and", and.Op)
}

func TestParseComparisonOperators(t *testing.T) {
	mod := parse(t, "x = a in b\ny = a not in b\nz = a is not b\n")
	ops := []string{"in", "not in", "is not"}
	for i, want := range ops {
		cmp, ok := mod.Body[i].(*pyast.Assign).Value.(*pyast.Compare)
		require.True(t, ok, "statement %d", i)
		require.Len(t, cmp.Operands, 2)
		require.Equal(t, []string{want}, cmp.Ops)
	}
}

func TestParseConditionalExpression(t *testing.T) {
	mod := parse(t, "x = 1 if cond else 2\n")
	ifexp, ok := mod.Body[0].(*pyast.Assign).Value.(*pyast.IfExp)
	require.True(t, ok)
	require.IsType(t, &pyast.Literal{}, ifexp.Body)
	require.IsType(t, &pyast.Name{}, ifexp.Cond)
	require.IsType(t, &pyast.Literal{}, ifexp.Else)
}

func TestParseChainedAndUnpackedAssignment(t *testing.T) {
	mod := parse(t, "x = y = 1\na, b = pair()\n")

	chained := mod.Body[0].(*pyast.Assign)
	require.Len(t, chained.Targets, 2)
	require.Empty(t, chained.Unpacked)

	unpacked := mod.Body[1].(*pyast.Assign)
	require.Empty(t, unpacked.Targets)
	require.Len(t, unpacked.Unpacked, 2)
}

func TestParseBareTupleStatement(t *testing.T) {
	mod := parse(t, "f(1), g(2), *rest\n")
	require.Len(t, mod.Body, 1)

	stmt, ok := mod.Body[0].(*pyast.ExprStmt)
	require.True(t, ok)
	tup, ok := stmt.Value.(*pyast.Display)
	require.True(t, ok)
	require.Equal(t, pyast.DisplayTuple, tup.Kind)
	require.Len(t, tup.Elts, 2)
	require.Len(t, tup.Splats, 1)
	for _, elt := range tup.Elts {
		_, ok := elt.(*pyast.Call)
		require.True(t, ok)
	}
}

func TestParseElifChain(t *testing.T) {
	mod := parse(t, "if a:\n    pass\nelif b:\n    pass\nelse:\n    pass\n")
	top, ok := mod.Body[0].(*pyast.If)
	require.True(t, ok)
	require.Len(t, top.Else, 1)
	nested, ok := top.Else[0].(*pyast.If)
	require.True(t, ok)
	require.Len(t, nested.Else, 1)
}

func TestParseTryExcept(t *testing.T) {
	mod := parse(t, "try:\n    f()\nexcept ValueError as e:\n    pass\nfinally:\n    g()\n")
	try, ok := mod.Body[0].(*pyast.Try)
	require.True(t, ok)
	require.Len(t, try.Body, 1)
	require.Len(t, try.Handlers, 1)
	require.Len(t, try.Finally, 1)

	h := try.Handlers[0]
	require.NotNil(t, h.Type)
	require.NotNil(t, h.Alias)
	require.Equal(t, "e", h.Alias.ID)
}

func TestParseLambda(t *testing.T) {
	mod := parse(t, "f = lambda v: v + 1\n")
	opaque, ok := mod.Body[0].(*pyast.Assign).Value.(*pyast.OpaqueExpr)
	require.True(t, ok)
	require.Len(t, opaque.Funcs, 1)

	fn := opaque.Funcs[0]
	require.True(t, fn.IsLambda)
	require.Len(t, fn.Params, 1)
	require.Equal(t, "v", fn.Params[0].Name)
	require.Len(t, fn.Body, 1)
	require.IsType(t, &pyast.Return{}, fn.Body[0])
}

func TestParseImports(t *testing.T) {
	mod := parse(t, "import collections\nfrom collections import defaultdict\nimport os.path\n")

	imp := mod.Body[0].(*pyast.Import)
	require.Len(t, imp.Bindings, 1)
	require.Equal(t, "collections", imp.Bindings[0].Name.ID)
	require.Equal(t, "collections", imp.Bindings[0].Path)

	from := mod.Body[1].(*pyast.Import)
	require.Len(t, from.Bindings, 1)
	require.Equal(t, "defaultdict", from.Bindings[0].Name.ID)
	require.Equal(t, "collections.defaultdict", from.Bindings[0].Path)

	dotted := mod.Body[2].(*pyast.Import)
	require.Len(t, dotted.Bindings, 1)
	require.Equal(t, "os", dotted.Bindings[0].Name.ID)
	require.Equal(t, "os.path", dotted.Bindings[0].Path)
}

func TestParseSpansAreOneBased(t *testing.T) {
	mod := parse(t, "x = 1\n")
	asg := mod.Body[0].(*pyast.Assign)
	require.Equal(t, 1, asg.Span().StartLine)
	require.Equal(t, 1, asg.Span().StartCol)

	lit := asg.Value.(*pyast.Literal)
	require.Equal(t, 5, lit.Span().StartCol)
	require.Equal(t, 6, lit.Span().EndCol)
}

func TestParseMalformedSourceStillLowers(t *testing.T) {
	mod, err := Parse([]byte("def broken(:\n    pass\n"))
	require.NoError(t, err)
	require.NotNil(t, mod)
}

func TestParseUnknownConstructsBecomeOpaque(t *testing.T) {
	mod := parse(t, "x = [i for i in range(3)]\nmatch x:\n    case [a]:\n        pass\n")
	asg := mod.Body[0].(*pyast.Assign)
	require.IsType(t, &pyast.OpaqueExpr{}, asg.Value)
}

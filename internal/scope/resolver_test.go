package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/pyparse"
)

func resolve(t *testing.T, src string) (*pyast.Module, *Resolution) {
	t.Helper()
	mod, err := pyparse.Parse([]byte(src))
	require.NoError(t, err)
	res, err := Resolve(mod)
	require.NoError(t, err)
	return mod, res
}

// findName locates the first read of an identifier; binding
// occurrences carry no Use and are skipped naturally.
func findName(mod *pyast.Module, res *Resolution, id string) *Use {
	var found *Use
	var visitExpr func(e pyast.Expr)
	var visitBody func(body []pyast.Stmt)
	visitExpr = func(e pyast.Expr) {
		switch ex := e.(type) {
		case nil:
		case *pyast.Name:
			if ex.ID == id && found == nil {
				found = res.UseOf(ex)
			}
		case *pyast.BoolOp:
			visitExpr(ex.Left)
			visitExpr(ex.Right)
		case *pyast.Not:
			visitExpr(ex.Operand)
		case *pyast.Compare:
			for _, op := range ex.Operands {
				visitExpr(op)
			}
		case *pyast.IfExp:
			visitExpr(ex.Cond)
			visitExpr(ex.Body)
			visitExpr(ex.Else)
		case *pyast.Call:
			visitExpr(ex.Func)
			for _, a := range ex.Args {
				visitExpr(a)
			}
		case *pyast.Attribute:
			visitExpr(ex.Value)
		case *pyast.Subscript:
			visitExpr(ex.Value)
			visitExpr(ex.Index)
		case *pyast.Display:
			for _, el := range ex.Elts {
				visitExpr(el)
			}
			for _, sp := range ex.Splats {
				visitExpr(sp)
			}
		case *pyast.Yield:
			visitExpr(ex.Value)
		case *pyast.NamedExpr:
			visitExpr(ex.Value)
		case *pyast.OpaqueExpr:
			for _, sub := range ex.Exprs {
				visitExpr(sub)
			}
			for _, fn := range ex.Funcs {
				visitBody(fn.Body)
			}
		}
	}
	visitBody = func(body []pyast.Stmt) {
		for _, stmt := range body {
			switch node := stmt.(type) {
			case *pyast.FuncDef:
				visitBody(node.Body)
			case *pyast.ClassDef:
				for _, b := range node.Bases {
					visitExpr(b)
				}
				visitBody(node.Body)
			case *pyast.Assign:
				visitExpr(node.Value)
			case *pyast.ExprStmt:
				visitExpr(node.Value)
			case *pyast.If:
				visitExpr(node.Cond)
				visitBody(node.Body)
				visitBody(node.Else)
			case *pyast.While:
				visitExpr(node.Cond)
				visitBody(node.Body)
				visitBody(node.Else)
			case *pyast.For:
				visitExpr(node.Iter)
				visitBody(node.Body)
				visitBody(node.Else)
			case *pyast.Return:
				visitExpr(node.Value)
			case *pyast.OpaqueStmt:
				for _, e := range node.Exprs {
					visitExpr(e)
				}
				visitBody(node.Body)
			}
		}
	}
	visitBody(mod.Body)
	return found
}

func TestConstantLiteralSimple(t *testing.T) {
	mod, res := resolve(t, `
def f():
    x = 1
    return x
`)
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	lit, asg, ok := use.ConstantLiteral()
	require.True(t, ok)
	require.Equal(t, pyast.LitInt, lit.Kind)
	require.NotNil(t, asg)
	require.True(t, use.SameScope)
}

func TestBranchMergeBreaksConstancy(t *testing.T) {
	mod, res := resolve(t, `
def f(p):
    if p:
        x = 1
    else:
        x = 2
    return x
`)
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	require.True(t, use.Multiple)
	_, _, ok := use.ConstantLiteral()
	require.False(t, ok)
}

func TestAugmentedAssignmentBreaksConstancy(t *testing.T) {
	mod, res := resolve(t, `
def f():
    x = 0
    x += 1
    return x
`)
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	_, _, ok := use.ConstantLiteral()
	require.False(t, ok)
}

func TestReassignmentAfterMergeRestoresConstancy(t *testing.T) {
	mod, res := resolve(t, `
def f(p):
    if p:
        x = 1
    else:
        x = 2
    x = 0
    return x
`)
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	lit, _, ok := use.ConstantLiteral()
	require.True(t, ok)
	require.Equal(t, "0", lit.Raw)
}

func TestModuleScopeNeverConstant(t *testing.T) {
	mod, res := resolve(t, "x = 1\nprint(x)\n")
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	_, _, ok := use.ConstantLiteral()
	require.False(t, ok)
}

func TestModuleScopeUniqueDef(t *testing.T) {
	mod, res := resolve(t, "x = 1\nprint(x)\n")
	use := findName(mod, res, "x")
	def, ok := use.UniqueDef()
	require.True(t, ok)
	require.IsType(t, &pyast.Literal{}, def)

	mod, res = resolve(t, "x = 1\nx = 2\nprint(x)\n")
	use = findName(mod, res, "x")
	_, ok = use.UniqueDef()
	require.False(t, ok)
}

func TestGlobalRedirection(t *testing.T) {
	mod, res := resolve(t, `
g = 0
def f():
    global g
    g = 1
    return g
`)
	use := findName(mod, res, "g")
	require.NotNil(t, use)
	require.NotNil(t, use.Binding)
	require.Equal(t, KindModule, use.Binding.Scope.Kind)
	require.True(t, use.Binding.Redirected)
}

func TestNonlocalRedirection(t *testing.T) {
	mod, res := resolve(t, `
def outer():
    x = 1
    def inner():
        nonlocal x
        x = 2
    inner()
    return x
`)
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	require.True(t, use.Binding.Redirected)
	_, _, ok := use.ConstantLiteral()
	require.False(t, ok)
}

func TestReadOnlyCaptureMarksBinding(t *testing.T) {
	mod, res := resolve(t, `
def outer():
    x = 1
    def inner():
        return x
    return x
`)
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	require.True(t, use.Binding.Captured)
	require.False(t, use.Binding.Redirected)
	// The outer read is resolved in the inner function first by the
	// walk order, but the outer use itself stays same-scope.
	_ = mod
}

func TestClassBodyNotVisibleToMethods(t *testing.T) {
	mod, res := resolve(t, `
class C:
    attr = 1
    def m(self):
        return attr
`)
	use := findName(mod, res, "attr")
	require.NotNil(t, use)
	// Lookup from the method body skips the class scope entirely.
	require.Nil(t, use.Binding)
}

func TestLoopBodyAssignmentIsMultipleAtLoopUse(t *testing.T) {
	mod, res := resolve(t, `
def f(items, p):
    for it in items:
        x = 1
        if p:
            x = 2
        if x:
            pass
`)
	use := findName(mod, res, "x")
	require.NotNil(t, use)
	require.True(t, use.Multiple)
}

func TestClassesCollected(t *testing.T) {
	_, res := resolve(t, `
class A:
    pass

def f():
    class B(A):
        pass
`)
	classes := res.Classes()
	require.Len(t, classes, 2)
	require.Equal(t, "A", classes[0].Def.Name)
	require.Equal(t, "B", classes[1].Def.Name)
}

func TestResolveSurvivesDeepStructures(t *testing.T) {
	src := "def f():\n    x = [i for i in range(3)]\n    return x\n"
	_, res := resolve(t, src)
	require.NotNil(t, res.ModuleScope)
}

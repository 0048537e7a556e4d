package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pycheck/internal/types"
)

func constantConditions(t *testing.T, src string) []types.Finding {
	t.Helper()
	return analyze(t, src, types.RuleConstantCondition)
}

func TestLiteralConditions(t *testing.T) {
	src := `
def literals():
    if 42: pass
    if False: pass
    if 'a string': pass
    if b'bytes': pass
    if None: pass
`
	findings := constantConditions(t, src)
	require.Equal(t, []int{3, 4, 5, 6, 7}, lines(findings))
	for _, f := range findings {
		require.Equal(t, constantConditionMessage, f.Message)
		require.Empty(t, f.Secondary)
	}
}

func TestDisplayConditions(t *testing.T) {
	src := `
def displays():
    if {}: pass
    if {"a": 1, "b": 2}: pass
    if {41, 42, 43}: pass
    if []: pass
    if [41, 42, 43]: pass
    if (41, 42, 43): pass
    if (): pass
`
	findings := constantConditions(t, src)
	require.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, lines(findings))
}

func TestUnpackingDisplays(t *testing.T) {
	src := `
def unpacking(p1, p2):
    if ["a string", *p1, *p2]: pass
    if [*p1, *p2]: pass
    if {"key": 1, **p1, **p2}: pass
    if {**p1, **p2}: pass
    if {"key", *p1, *p2}: pass
    if {*p1, *p2}: pass
    if ("key", *p1, *p2): pass
    if (*p1, *p2): pass
`
	findings := constantConditions(t, src)
	// Splat-only displays may be empty at runtime, so only the mixed
	// forms are constant.
	require.Equal(t, []int{3, 5, 7, 9}, lines(findings))
}

func TestConditionalExpressionTest(t *testing.T) {
	findings := constantConditions(t, "def f():\n    var = 1 if 2 else 3\n")
	require.Len(t, findings, 1)
	require.Equal(t, 2, findings[0].Primary.StartLine)
}

func TestBooleanChains(t *testing.T) {
	cases := []struct {
		name string
		expr string
		want int
	}{
		{"final operand of if condition", "if input() or 3: pass", 1},
		{"non-final operand of if condition", "if 3 and input(): pass", 1},
		{"arithmetic is opaque", "if 3 + input(): pass", 0},
		{"calls are opaque", "if foo() and bar(): pass", 0},
		{"negation operand", "if not 3: pass", 1},
		{"negated call", "if not input(): pass", 0},
		{"final or operand as value", "var = input() or 3", 0},
		{"final and operand as value", "var = input() and 3", 0},
		{"middle of and chain as value", "var = input() and 3 and input()", 1},
		{"middle of or chain as value", "var = input() or 3 or input()", 1},
		{"ternary idiom value", "var = input() and 3 or input()", 0},
		{"and chain after or", "var = input() or 3 and input()", 1},
		{"head of or chain", "var = 3 or input() and input()", 1},
		{"head of ternary idiom", "var = 3 and input() or input()", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			findings := constantConditions(t, "def f():\n    "+tc.expr+"\n")
			require.Len(t, findings, tc.want)
		})
	}
}

func TestLoopAndConstructorConditionsIgnored(t *testing.T) {
	src := `
def ignored():
    while True:
        pass
    if list():
        pass
`
	require.Empty(t, constantConditions(t, src))
}

func TestConstantBindingReported(t *testing.T) {
	src := `
def variables(param):
    if param:
        x = 1
    else:
        x = 2

    x = 0
    if x: pass

    y = 42
    if y: pass
`
	findings := constantConditions(t, src)
	require.Equal(t, []int{9, 12}, lines(findings))

	require.Len(t, findings[0].Secondary, 1)
	require.Equal(t, lastAssignmentMessage, findings[0].Secondary[0].Message)
	require.Equal(t, 8, findings[0].Secondary[0].Span.StartLine)
}

func TestNonConstantBindings(t *testing.T) {
	src := `
def variable_not_constant(param):
    x = param
    if x: pass

    if param:
        z = 1
    else:
        z = 2
    if z: pass

    i = 0
    i += 1
    if i: pass

    for j in []:
        isRunning = False
        if param:
            isRunning = True
        if isRunning: pass
`
	require.Empty(t, constantConditions(t, src))
}

func TestLoopBodyLiteralConstantWithinIteration(t *testing.T) {
	src := `
def per_iteration(items):
    for i in items:
        v = 1
        if v:
            print(v)
`
	findings := constantConditions(t, src)
	require.Equal(t, []int{5}, lines(findings))
}

func TestTupleStatementWalrusBreaksConstancy(t *testing.T) {
	src := `
def f():
    x = 0
    print(x), (x := input())
    if x:
        print(x)
`
	require.Empty(t, constantConditions(t, src))
}

func TestRedirectedAndModuleBindings(t *testing.T) {
	src := `
glob = 42

def nonlocal_reference():
    loc = 0
    def modifying():
        nonlocal loc
        loc = 2
    foo(modifying)
    if loc:
        print(loc)

    global glob
    if glob:
        print(glob)

    loc2 = 1
    def capturing_loc():
        if loc2:
            pass
`
	require.Empty(t, constantConditions(t, src))
}

func TestReadOnlyCaptureStaysConstant(t *testing.T) {
	src := `
def immutable_captured():
    loc = 1
    def different_variable_with_same_name():
        loc = 2
    different_variable_with_same_name()

    def capturing_without_modifying():
        print(loc + 42)
    capturing_without_modifying()

    if loc:
        print(loc)
`
	findings := constantConditions(t, src)
	require.Equal(t, []int{12}, lines(findings))
}

func TestModuleScopeSingleAssignmentNotReported(t *testing.T) {
	src := `
flag = 1
if flag:
    pass
`
	require.Empty(t, constantConditions(t, src))
}

package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pycheck/internal/types"
)

func unthrown(t *testing.T, src string) []types.Finding {
	t.Helper()
	return analyze(t, src, types.RuleExceptionNotThrown)
}

func TestBuiltinExceptionStatements(t *testing.T) {
	src := `
def instantiated():
    BaseException()
    Exception("")
    ValueError()
    TypeError()

    BaseException
    ValueError
`
	findings := unthrown(t, src)
	require.Equal(t, []int{3, 4, 5, 6, 8, 9}, lines(findings))
	for _, f := range findings {
		require.Equal(t, exceptionNotThrownMessage, f.Message)
	}
}

func TestCustomExceptionClasses(t *testing.T) {
	src := `
class C1(TypeError):
    pass

def nested():
    class Custom(TypeError):
        pass

    Custom()
    C1()
`
	findings := unthrown(t, src)
	require.Equal(t, []int{9, 10}, lines(findings))
}

func TestTransitiveInheritanceChain(t *testing.T) {
	src := `
class Base(TypeError):
    pass

class Derived(Base):
    pass

def f():
    Derived()
    Derived
`
	findings := unthrown(t, src)
	require.Equal(t, []int{9, 10}, lines(findings))
}

func TestMultiBaseUsesFirstBaseOnly(t *testing.T) {
	src := `
class Mixin:
    pass

class FirstIsException(ValueError, Mixin):
    pass

class FirstIsNot(Mixin, ValueError):
    pass

def f():
    FirstIsException()
    FirstIsNot()
`
	findings := unthrown(t, src)
	require.Equal(t, []int{12}, lines(findings))
}

func TestUnknownNamesAndClasses(t *testing.T) {
	src := `
def coverage():
    SomethingUnknown()
    SomethingUnknown

    class C2(C3):
        pass

    C2()
`
	require.Empty(t, unthrown(t, src))
}

func TestExemptPositions(t *testing.T) {
	src := `
def compliant(param, func):
    lambda: ValueError() if param else None
    func(ValueError())
    if param == 1:
        raise ValueError()
    elif param == 2:
        raise ValueError()
    x = ValueError()
    return ValueError()

def gen():
    yield ValueError()
`
	require.Empty(t, unthrown(t, src))
}

func TestShadowedExceptionName(t *testing.T) {
	src := `
def shadowed():
    ValueError = make_thing()
    ValueError()
`
	require.Empty(t, unthrown(t, src))
}

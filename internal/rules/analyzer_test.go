package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pycheck/internal/pyparse"
	"github.com/standardbeagle/pycheck/internal/types"
)

// analyze parses src and runs the given rules (all when none named).
func analyze(t *testing.T, src string, rules ...types.RuleID) []types.Finding {
	t.Helper()
	mod, err := pyparse.Parse([]byte(src))
	require.NoError(t, err)
	findings, err := NewAnalyzer(rules...).Analyze(mod)
	require.NoError(t, err)
	return findings
}

// lines extracts the primary start line of each finding.
func lines(findings []types.Finding) []int {
	out := make([]int, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Primary.StartLine)
	}
	return out
}

func TestAnalyzerRunsAllRulesByDefault(t *testing.T) {
	src := `
def f():
    if 42:
        pass
    ValueError()
    round(1.3)
`
	findings := analyze(t, src)
	require.Len(t, findings, 3)

	seen := map[types.RuleID]bool{}
	for _, f := range findings {
		seen[f.Rule] = true
	}
	require.True(t, seen[types.RuleConstantCondition])
	require.True(t, seen[types.RuleExceptionNotThrown])
	require.True(t, seen[types.RuleIgnoredPureOperation])
}

func TestAnalyzerRuleSelection(t *testing.T) {
	src := `
def f():
    if 42:
        pass
    ValueError()
`
	findings := analyze(t, src, types.RuleExceptionNotThrown)
	require.Len(t, findings, 1)
	require.Equal(t, types.RuleExceptionNotThrown, findings[0].Rule)
}

func TestAnalyzerOrdersFindingsByPosition(t *testing.T) {
	src := `
def f():
    round(1.3)
    if 42:
        pass
    ValueError()
`
	findings := analyze(t, src)
	require.Equal(t, []int{3, 4, 6}, lines(findings))
}

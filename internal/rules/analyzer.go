// Package rules hosts the redundancy detectors. Analysis of a file
// runs in two ordered phases: scope resolution completes first, then
// each enabled detector walks the tree against the frozen knowledge
// bases. Detectors share no mutable state, so separate files can be
// analyzed concurrently by separate Analyze calls.
package rules

import (
	"github.com/standardbeagle/pycheck/internal/exceptions"
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/scope"
	"github.com/standardbeagle/pycheck/internal/types"
)

// Analyzer runs a fixed set of rules over parsed files.
type Analyzer struct {
	enabled map[types.RuleID]bool
}

// NewAnalyzer returns an analyzer running the given rules, or every
// known rule when none are named.
func NewAnalyzer(rules ...types.RuleID) *Analyzer {
	if len(rules) == 0 {
		rules = types.AllRules
	}
	enabled := make(map[types.RuleID]bool, len(rules))
	for _, r := range rules {
		enabled[r] = true
	}
	return &Analyzer{enabled: enabled}
}

// Analyze resolves one module and runs the enabled detectors over it.
// Findings come back ordered by position. A resolution failure aborts
// this file only.
func (a *Analyzer) Analyze(mod *pyast.Module) ([]types.Finding, error) {
	res, err := scope.Resolve(mod)
	if err != nil {
		return nil, err
	}

	var findings []types.Finding
	if a.enabled[types.RuleConstantCondition] {
		d := &constantCondition{res: res, findings: &findings}
		d.run(mod)
	}
	if a.enabled[types.RuleExceptionNotThrown] {
		d := &exceptionNotThrown{index: exceptions.NewIndex(res), findings: &findings}
		d.run(mod)
	}
	if a.enabled[types.RuleIgnoredPureOperation] {
		d := &ignoredPureOperation{
			res:      res,
			infer:    &typeInferrer{res: res},
			findings: &findings,
		}
		d.run(mod)
	}

	types.SortFindings(findings)
	return findings, nil
}

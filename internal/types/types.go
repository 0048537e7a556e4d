// Package types holds the shared data model used across the analysis
// pipeline: source spans, rule identifiers, and findings.
package types

import (
	"fmt"
	"sort"
)

// FileID uniquely identifies a file within one run.
type FileID uint32

// Span is a half-open byte range in a source file, with line/column
// positions for rendering. Lines and columns are 1-based.
type Span struct {
	StartByte uint
	EndByte   uint
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String renders the span start as "line:col".
func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
}

// Before reports whether s starts strictly before other in source order.
func (s Span) Before(other Span) bool {
	if s.StartByte != other.StartByte {
		return s.StartByte < other.StartByte
	}
	return s.EndByte < other.EndByte
}

// RuleID identifies one of the redundancy rules.
type RuleID string

const (
	RuleConstantCondition    RuleID = "constant-condition"
	RuleExceptionNotThrown   RuleID = "exception-not-thrown"
	RuleIgnoredPureOperation RuleID = "ignored-pure-operation"
)

// AllRules lists every rule in stable order.
var AllRules = []RuleID{
	RuleConstantCondition,
	RuleExceptionNotThrown,
	RuleIgnoredPureOperation,
}

// SecondarySpan is an auxiliary location attached to a finding, such as
// the last assignment feeding a constant condition.
type SecondarySpan struct {
	Span    Span
	Message string
}

// Finding is one reported issue. Presentation is left to the caller;
// the engine only produces the ordered sequence of findings per file.
type Finding struct {
	Rule      RuleID
	Primary   Span
	Secondary []SecondarySpan
	Message   string
}

// SortFindings orders findings by primary span source position.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Primary.Before(findings[j].Primary)
	})
}

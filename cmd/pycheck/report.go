package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/standardbeagle/pycheck/internal/runner"
	"github.com/standardbeagle/pycheck/internal/types"
)

// reporter renders analysis results to a writer. Findings are already
// position-ordered per file by the analyzer.
type reporter struct {
	format string
	out    io.Writer
}

func newReporter(format string, out io.Writer) (*reporter, error) {
	switch format {
	case "text", "json":
		return &reporter{format: format, out: out}, nil
	default:
		return nil, fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}
}

// Report renders each result and returns the finding count and the
// number of files that failed to analyze.
func (r *reporter) Report(results []runner.Result) (findings, failed int) {
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		findings += len(res.Findings)
	}
	if r.format == "json" {
		r.reportJSON(results)
		return findings, failed
	}
	for _, res := range results {
		for _, f := range res.Findings {
			fmt.Fprintf(r.out, "%s:%s: %s [%s]\n", res.Path, f.Primary, f.Message, f.Rule)
			for _, sec := range f.Secondary {
				fmt.Fprintf(r.out, "  %s:%s: %s\n", res.Path, sec.Span, sec.Message)
			}
		}
	}
	return findings, failed
}

type jsonFinding struct {
	Path      string          `json:"path"`
	Rule      types.RuleID    `json:"rule"`
	Line      int             `json:"line"`
	Column    int             `json:"column"`
	EndLine   int             `json:"endLine"`
	EndColumn int             `json:"endColumn"`
	Message   string          `json:"message"`
	Secondary []jsonSecondary `json:"secondary,omitempty"`
}

type jsonSecondary struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (r *reporter) reportJSON(results []runner.Result) {
	out := make([]jsonFinding, 0)
	for _, res := range results {
		for _, f := range res.Findings {
			jf := jsonFinding{
				Path:      res.Path,
				Rule:      f.Rule,
				Line:      f.Primary.StartLine,
				Column:    f.Primary.StartCol,
				EndLine:   f.Primary.EndLine,
				EndColumn: f.Primary.EndCol,
				Message:   f.Message,
			}
			for _, sec := range f.Secondary {
				jf.Secondary = append(jf.Secondary, jsonSecondary{
					Line:    sec.Span.StartLine,
					Column:  sec.Span.StartCol,
					Message: sec.Message,
				})
			}
			out = append(out, jf)
		}
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

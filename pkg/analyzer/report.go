package analyzer

import (
	"fmt"
	"io"
	"sort"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// SortFindings orders findings for reporting: line ascending with
// file-level findings (line 0) first, then rule id lexicographically, then
// original order. The ordering is a contract; output must be reproducible
// across runs regardless of how the rules were scheduled.
func SortFindings(findings []dockerfile.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].RuleID < findings[j].RuleID
	})
}

// WriteText renders findings in the compiler-style one-line-per-finding
// format: path:line severity ruleId message.
func WriteText(w io.Writer, path string, res *Result) error {
	for _, f := range res.Findings {
		var err error
		if f.Line > 0 {
			_, err = fmt.Fprintf(w, "%s:%d %s %s %s\n", path, f.Line, f.Severity, f.RuleID, f.Message)
		} else {
			_, err = fmt.Fprintf(w, "%s %s %s %s\n", path, f.Severity, f.RuleID, f.Message)
		}
		if err != nil {
			return err
		}
	}
	if len(res.Findings) == 0 {
		_, err := fmt.Fprintf(w, "%s: no findings\n", path)
		return err
	}
	return nil
}

// MaxSeverity returns the most severe level among the findings, or false
// when there are none.
func MaxSeverity(findings []dockerfile.Finding) (dockerfile.Severity, bool) {
	rank := map[dockerfile.Severity]int{
		dockerfile.SeverityInfo:    1,
		dockerfile.SeverityWarning: 2,
		dockerfile.SeverityError:   3,
	}
	var (
		best    dockerfile.Severity
		bestVal int
	)
	for _, f := range findings {
		if v := rank[f.Severity]; v > bestVal {
			best, bestVal = f.Severity, v
		}
	}
	return best, bestVal > 0
}

package dockerfile

import "fmt"

// SyntaxError is the only fatal error class the engine produces. It means
// the input could not be parsed into a coherent instruction stream at all;
// everything less severe is reported as a Finding and analysis continues.
type SyntaxError struct {
	// Line is the 1-based physical line where the error was detected.
	Line int

	// Message describes what could not be parsed.
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
}

// syntaxErrorf builds a SyntaxError for the given line.
func syntaxErrorf(line int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// Severity classifies how serious a Finding is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a single diagnostic produced by a rule or by parse-time
// structural checks. Findings are plain values; they never carry references
// into the model they describe.
type Finding struct {
	// RuleID identifies the check that produced the finding.
	RuleID string `json:"rule_id"`

	// Severity is the finding severity.
	Severity Severity `json:"severity"`

	// Line is the 1-based physical line the finding refers to. Zero means
	// the finding applies to the file as a whole.
	Line int `json:"line"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Suggestion optionally describes how to fix the problem.
	Suggestion string `json:"suggestion,omitempty"`
}

// Structural rule IDs emitted by the parser and stage graph builder rather
// than by the rule engine.
const (
	RuleMissingBaseImage      = "MissingBaseImage"
	RuleUnresolvedStageRef    = "UnresolvedStageReference"
	RuleDuplicateStageName    = "DuplicateStageName"
	RuleInstructionBeforeFrom = "InstructionBeforeFrom"
)

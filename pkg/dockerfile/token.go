// Package dockerfile parses Dockerfile text into an instruction model and
// stage graph suitable for static analysis. Parsing is purely textual:
// variable references are preserved verbatim and no build context is
// consulted.
package dockerfile

import (
	"strings"
)

// LogicalLine is one instruction-bearing unit of the input: one or more
// physical lines joined by continuation markers, with comments stripped.
type LogicalLine struct {
	// Number is the 1-based physical line where the logical line begins.
	Number int `json:"number"`

	// Text is the joined instruction text with continuations removed.
	Text string `json:"text"`

	// TrailingComment holds a trailing comment stripped from the line, if
	// any. For multi-line instructions the last trailing comment wins.
	TrailingComment string `json:"trailing_comment,omitempty"`
}

const defaultEscapeChar = '\\'

// ReadLogicalLines splits raw Dockerfile text into logical lines. Blank
// lines and full-line comments are dropped without disturbing the physical
// line numbering of what follows. A continuation marker on the final line
// of the file is a SyntaxError.
func ReadLogicalLines(text string) ([]LogicalLine, error) {
	physical := strings.Split(text, "\n")
	escape := scanEscapeDirective(physical)

	var (
		lines       []LogicalLine
		parts       []string
		startLine   int
		lastComment string
		contLine    int // physical line carrying the pending continuation
		sawContent  bool
	)

	flush := func() {
		if len(parts) == 0 {
			return
		}
		lines = append(lines, LogicalLine{
			Number:          startLine,
			Text:            strings.Join(parts, " "),
			TrailingComment: lastComment,
		})
		parts = nil
		lastComment = ""
	}

	continuing := false
	for i, raw := range physical {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			// Blank lines inside a continuation are skipped, matching
			// Docker; outside one they simply separate instructions.
			if !continuing {
				flush()
			}
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			// Full-line comments never terminate a continuation.
			continue
		}

		content, comment := splitTrailingComment(trimmed)
		if comment != "" {
			lastComment = comment
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}

		cont := false
		if endsWithContinuation(content, escape) {
			cont = true
			contLine = lineNo
			content = strings.TrimSpace(content[:len(content)-1])
		}

		if !continuing {
			flush()
			startLine = lineNo
		}
		if content != "" {
			parts = append(parts, content)
		}
		sawContent = true
		continuing = cont
	}

	if continuing && sawContent {
		return nil, syntaxErrorf(contLine, "line continuation with nothing to continue to")
	}
	flush()

	return lines, nil
}

// scanEscapeDirective returns the escape character declared by a leading
// `# escape=` parser directive, or the default backslash. Directives are
// only honored before the first instruction, as Docker does.
func scanEscapeDirective(physical []string) rune {
	for _, raw := range physical {
		trimmed := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			return defaultEscapeChar
		}
		directive := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		if v, ok := strings.CutPrefix(directive, "escape="); ok {
			v = strings.TrimSpace(v)
			if v == "`" {
				return '`'
			}
			return defaultEscapeChar
		}
	}
	return defaultEscapeChar
}

// endsWithContinuation reports whether content ends in an unescaped
// continuation marker. A doubled escape character escapes itself.
func endsWithContinuation(content string, escape rune) bool {
	if !strings.HasSuffix(content, string(escape)) {
		return false
	}
	trailing := 0
	for i := len(content) - 1; i >= 0 && rune(content[i]) == escape; i-- {
		trailing++
	}
	return trailing%2 == 1
}

// splitTrailingComment splits off a trailing `#` comment, ignoring hash
// marks inside single or double quotes. If a quote is left open the rest of
// the line is treated as content; the parser reports the unterminated quote.
func splitTrailingComment(line string) (content, comment string) {
	var inSingle, inDouble bool
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '\\':
			if inDouble && i+1 < len(line) {
				i++
			}
		case '#':
			if !inSingle && !inDouble {
				return line[:i], strings.TrimSpace(strings.TrimPrefix(line[i:], "#"))
			}
		}
	}
	return line, ""
}

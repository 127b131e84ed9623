package dockerfile

import "strings"

// splitWords splits an argument string into whitespace-delimited words,
// honoring single quotes, double quotes and backslash escapes inside double
// quotes. Variable references pass through untouched. An unterminated quote
// is the caller's SyntaxError.
func splitWords(s string, line int) ([]string, error) {
	var (
		words  []string
		buf    strings.Builder
		inWord bool
		quote  byte // 0, '\'' or '"'
	)

	flush := func() {
		if inWord {
			words = append(words, buf.String())
			buf.Reset()
			inWord = false
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				buf.WriteByte(c)
			}
		case quote == '"':
			switch c {
			case '"':
				quote = 0
			case '\\':
				if i+1 < len(s) {
					i++
					buf.WriteByte(s[i])
				} else {
					buf.WriteByte(c)
				}
			default:
				buf.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inWord = true
		case c == '\\':
			inWord = true
			if i+1 < len(s) {
				i++
				buf.WriteByte(s[i])
			}
		case c == ' ' || c == '\t':
			flush()
		default:
			inWord = true
			buf.WriteByte(c)
		}
	}

	if quote != 0 {
		return nil, syntaxErrorf(line, "unterminated quoted string")
	}
	flush()
	return words, nil
}

// parseKeyValuePairs turns the word list of an ENV, ARG or LABEL instruction
// into key/value pairs. Both `KEY=value` and the legacy `KEY value` spelling
// are accepted, as are the sloppy `KEY= value` and `KEY =value` forms seen
// in real Dockerfiles. optionalValue marks ARG, where a bare key declares a
// variable without a default.
func parseKeyValuePairs(words []string, optionalValue bool) []KeyValue {
	// Normalize into a flat key, value, key, value sequence first: a word
	// containing '=' splits in two, a trailing or leading '=' glues the
	// word to its neighbor, and a lone '=' is dropped.
	var flat []string
	prevGlued := false
	for _, w := range words {
		switch {
		case w == "=":
			prevGlued = true
		case strings.HasPrefix(w, "="):
			flat = append(flat, strings.TrimPrefix(w, "="))
			prevGlued = false
		case strings.HasSuffix(w, "="):
			flat = append(flat, strings.TrimSuffix(w, "="))
			prevGlued = true
		case prevGlued:
			flat = append(flat, w)
			prevGlued = false
		case strings.Contains(w, "="):
			k, v, _ := strings.Cut(w, "=")
			flat = append(flat, k, v)
		default:
			flat = append(flat, w)
		}
	}

	var pairs []KeyValue
	for i := 0; i < len(flat); i += 2 {
		kv := KeyValue{Key: flat[i]}
		if i+1 < len(flat) {
			kv.Value = flat[i+1]
			kv.HasValue = true
		} else {
			kv.HasValue = !optionalValue
		}
		pairs = append(pairs, kv)
	}
	return pairs
}

package toolstream

import "strings"

// Repair attempts to turn a truncated JSON argument string into something
// parseable: it closes an unterminated string literal, drops a dangling
// comma or supplies a missing value after a colon, and closes every open
// brace and bracket. An empty payload becomes the empty object, covering
// calls that legitimately take no arguments.
//
// Repair is a salvage heuristic for streams cut off mid-call. It does not
// guarantee validity; callers re-check the result before trusting it.
func Repair(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "{}"
	}

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(trimmed)
	if inString {
		if escaped {
			// The cut landed on a backslash; finish the escape before
			// closing the string.
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}

	// A payload ending in "," or ":" would stay invalid after closing the
	// brackets, so patch the tail first.
	patched := strings.TrimRight(b.String(), " \t\n\r")
	if strings.HasSuffix(patched, ",") {
		patched = strings.TrimRight(patched[:len(patched)-1], " \t\n\r")
	} else if strings.HasSuffix(patched, ":") {
		patched += "null"
	}

	b.Reset()
	b.WriteString(patched)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

package fetchparse

import (
	"fmt"
	"strconv"
	"strings"
)

// Scanner primitives. Every function takes the remaining input and returns
// the scanned value, the input left after it, and an error wrapping ErrSyntax.

func syntaxErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

// excerpt shortens s for diagnostics.
func excerpt(s string) string {
	if len(s) > 32 {
		return strconv.Quote(s[:32]) + "..."
	}
	return strconv.Quote(s)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func skipWhitespace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

// matchPrefix reports whether s starts with lit, ignoring ASCII case.
func matchPrefix(s, lit string) bool {
	if len(s) < len(lit) {
		return false
	}
	for i := 0; i < len(lit); i++ {
		a, b := s[i], lit[i]
		if a == b {
			continue
		}
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func consumeKeyword(s, lit string) (string, error) {
	if !matchPrefix(s, lit) {
		return s, syntaxErrorf("expected %q, got %s", lit, excerpt(s))
	}
	return s[len(lit):], nil
}

func scanUnsignedInt(s string) (uint64, string, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, syntaxErrorf("expected number, got %s", excerpt(s))
	}
	n, err := strconv.ParseUint(s[:i], 10, 64)
	if err != nil {
		return 0, s, syntaxErrorf("bad number %q: %v", s[:i], err)
	}
	return n, s[i:], nil
}

// scanQuotedOrNil scans NIL, a {n} literal or a quoted string. The returned
// bool is false for NIL. Quoted content is returned as it appears on the wire:
// escapes are recognized to find the closing quote but not removed.
func scanQuotedOrNil(s string) (string, bool, string, error) {
	s = skipWhitespace(s)
	switch {
	case matchPrefix(s, "NIL"):
		return "", false, skipWhitespace(s[3:]), nil
	case strings.HasPrefix(s, "{"):
		v, rest, err := scanLiteral(s)
		return v, true, rest, err
	case strings.HasPrefix(s, `"`):
		v, rest, err := scanQuoted(s)
		return v, true, rest, err
	}
	return "", false, s, syntaxErrorf("expected string or NIL, got %s", excerpt(s))
}

// scanLiteral scans "{" digits "}" [CR] LF followed by exactly that many bytes.
func scanLiteral(s string) (string, string, error) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return "", s, syntaxErrorf("literal without closing brace: %s", excerpt(s))
	}
	digits := strings.TrimSuffix(s[1:end], "+")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return "", s, syntaxErrorf("bad literal length %q", s[1:end])
	}
	rest := s[end+1:]
	rest = strings.TrimPrefix(rest, "\r")
	if !strings.HasPrefix(rest, "\n") {
		return "", s, syntaxErrorf("literal length not followed by newline")
	}
	rest = rest[1:]
	if len(rest) < n {
		return "", s, syntaxErrorf("literal of %d bytes, only %d remaining", n, len(rest))
	}
	return rest[:n], rest[n:], nil
}

func scanQuoted(s string) (string, string, error) {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return s[1:i], s[i+1:], nil
		}
	}
	return "", s, syntaxErrorf("unterminated quoted string: %s", excerpt(s))
}

type scanState int

const (
	stateNormal scanState = iota
	stateInQuote
)

// closeIndex walks s from start and returns the index of the first position
// outside quotes where s has the prefix closer, or -1.
func closeIndex(s string, start int, closer string) int {
	state := stateNormal
	for i := start; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateInQuote:
			switch c {
			case '\\':
				i++
			case '"':
				state = stateNormal
			}
		case stateNormal:
			if c == '"' {
				state = stateInQuote
				continue
			}
			if strings.HasPrefix(s[i:], closer) {
				return i
			}
		}
	}
	return -1
}

// scanParenthesized returns the text between the next "(" and its closing
// ")", tracking nesting outside quoted regions.
func scanParenthesized(s string) (string, string, error) {
	s = skipWhitespace(s)
	if !strings.HasPrefix(s, "(") {
		return "", s, syntaxErrorf("expected '(', got %s", excerpt(s))
	}
	depth := 0
	state := stateNormal
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateInQuote {
			switch c {
			case '\\':
				i++
			case '"':
				state = stateNormal
			}
			continue
		}
		switch c {
		case '"':
			state = stateInQuote
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", s, syntaxErrorf("unmatched '(' in %s", excerpt(s))
}

// scanParenthesizedList scans NIL or a list of parenthesized elements such as
// an address list "((...)(...))". The returned inner text runs from the first
// element's "(" through its last element's ")".
func scanParenthesizedList(s string) (string, bool, string, error) {
	s = skipWhitespace(s)
	if matchPrefix(s, "NIL") {
		return "", false, skipWhitespace(s[3:]), nil
	}
	if !strings.HasPrefix(s, "((") {
		return "", false, s, syntaxErrorf("expected list or NIL, got %s", excerpt(s))
	}
	end := closeIndex(s, 1, "))")
	if end < 0 {
		return "", false, s, syntaxErrorf("unterminated list %s", excerpt(s))
	}
	return s[1 : end+1], true, s[end+2:], nil
}

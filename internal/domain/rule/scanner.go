package rule

import (
	"fmt"
	"strings"
)

// SyntaxError reports a rule that could not be scanned.
type SyntaxError struct {
	Rule   string
	Prefix string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rule syntax: unbalanced bracket after %q in %q", e.Prefix, e.Rule)
}

// Scanner is a cursor over a rule string that knows how to skip balanced
// bracket spans. Code mode balances like a script parser: parentheses only
// count outside square brackets and quoted text is skipped.
type Scanner struct {
	text string
	code bool
}

// NewScanner creates a scanner for selector rules.
func NewScanner(text string) *Scanner {
	return &Scanner{text: text}
}

// NewCodeScanner creates a scanner for JSON-path and script rules.
func NewCodeScanner(text string) *Scanner {
	return &Scanner{text: text, code: true}
}

// Split is shorthand for NewScanner(text).Split(delims...).
func Split(text string, delims ...string) ([]string, string, error) {
	return NewScanner(text).Split(delims...)
}

// SplitCode is shorthand for NewCodeScanner(text).Split(delims...).
func SplitCode(text string, delims ...string) ([]string, string, error) {
	return NewCodeScanner(text).Split(delims...)
}

// Split cuts the text on the first top-level delimiter found, checking
// delims in priority order at every position. The delimiter found becomes
// the only separator for the rest of the text. With no delimiter the whole
// text comes back as one part and an empty separator.
func (s *Scanner) Split(delims ...string) ([]string, string, error) {
	sep, pos, err := s.next(0, delims)
	if err != nil {
		return nil, "", err
	}
	if sep == "" {
		return []string{s.text}, "", nil
	}

	parts := []string{s.text[:pos]}
	start := pos + len(sep)
	for {
		_, at, err := s.next(start, []string{sep})
		if err != nil {
			return nil, "", err
		}
		if at < 0 {
			parts = append(parts, s.text[start:])
			return parts, sep, nil
		}
		parts = append(parts, s.text[start:at])
		start = at + len(sep)
	}
}

// next finds the first top-level occurrence of any delimiter at or after
// from. It returns the delimiter and its offset, or "" and -1.
func (s *Scanner) next(from int, delims []string) (string, int, error) {
	if len(delims) == 0 {
		return "", -1, nil
	}
	for pos := from; pos < len(s.text); {
		c := s.text[pos]
		if c == '[' || c == '(' {
			end, ok := s.balance(pos)
			if !ok {
				// A dangling bracket only matters when a delimiter follows it.
				if !containsAny(s.text[pos:], delims) {
					return "", -1, nil
				}
				return "", -1, &SyntaxError{Rule: s.text, Prefix: s.text[:pos]}
			}
			pos = end
			continue
		}
		for _, d := range delims {
			if d != "" && strings.HasPrefix(s.text[pos:], d) {
				return d, pos, nil
			}
		}
		pos++
	}
	return "", -1, nil
}

// balance consumes the span opened at pos and returns the offset just past
// its closing bracket.
func (s *Scanner) balance(pos int) (int, bool) {
	if s.code {
		return chompCode(s.text, pos)
	}
	return chompRule(s.text, pos)
}

// chompRule balances one bracket kind, honoring quotes and escapes.
func chompRule(text string, pos int) (int, bool) {
	open := text[pos]
	closer := closing(open)
	depth := 0
	inSingle, inDouble := false, false
	for i := pos; i < len(text); i++ {
		c := text[i]
		if c == '\'' && !inDouble {
			inSingle = !inSingle
			continue
		}
		if c == '"' && !inSingle {
			inDouble = !inDouble
			continue
		}
		if inSingle || inDouble {
			continue
		}
		if c == '\\' {
			i++
			continue
		}
		switch c {
		case open:
			depth++
		case closer:
			depth--
		}
		if depth == 0 {
			return i + 1, true
		}
	}
	return pos, false
}

// chompCode balances square brackets plus one other pair outside them.
// Brackets inside quoted strings do not count; a backslash escapes the next
// byte everywhere.
func chompCode(text string, pos int) (int, bool) {
	open := text[pos]
	closer := closing(open)
	depth, other := 0, 0
	inSingle, inDouble := false, false
	for i := pos; i < len(text); i++ {
		c := text[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '\'' && !inDouble {
			inSingle = !inSingle
		} else if c == '"' && !inSingle {
			inDouble = !inDouble
		}
		if inSingle || inDouble {
			continue
		}
		switch {
		case c == '[':
			depth++
		case c == ']':
			depth--
		case depth == 0 && c == open:
			other++
		case depth == 0 && c == closer:
			other--
		}
		if depth == 0 && other == 0 {
			return i + 1, true
		}
	}
	return pos, false
}

func closing(open byte) byte {
	switch open {
	case '[':
		return ']'
	case '(':
		return ')'
	case '{':
		return '}'
	}
	return open
}

func containsAny(text string, delims []string) bool {
	for _, d := range delims {
		if d != "" && strings.Contains(text, d) {
			return true
		}
	}
	return false
}

// TrimRule drops leading '@' and whitespace/control characters.
func TrimRule(s string) string {
	i := 0
	for i < len(s) && (s[i] == '@' || s[i] < '!') {
		i++
	}
	return s[i:]
}

// InnerRule expands every template introduced by open. The template body
// is the balanced {...} region starting at the marker's first byte; fn
// receives the region without its outer braces. A false second return from
// fn leaves the template text in place. The bool result reports whether any
// substitution happened.
func InnerRule(text, open string, fn func(string) (string, bool)) (string, bool) {
	var b strings.Builder
	replaced := false
	last := 0
	for pos := 0; pos < len(text); {
		at := strings.Index(text[pos:], open)
		if at < 0 {
			break
		}
		at += pos
		end, ok := chompCode(text, at)
		if !ok || end-at < 2 {
			break
		}
		value, ok := fn(text[at+1 : end-1])
		if ok {
			b.WriteString(text[last:at])
			b.WriteString(value)
			last = end
			replaced = true
		}
		pos = end
	}
	if !replaced {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}

// InnerRange expands start...end templates without balance tracking.
func InnerRange(text, start, end string, fn func(string) (string, bool)) (string, bool) {
	var b strings.Builder
	replaced := false
	last := 0
	for pos := 0; pos < len(text); {
		at := strings.Index(text[pos:], start)
		if at < 0 {
			break
		}
		at += pos
		stop := strings.Index(text[at+len(start):], end)
		if stop < 0 {
			break
		}
		stop += at + len(start)
		value, ok := fn(text[at+len(start) : stop])
		if ok {
			b.WriteString(text[last:at])
			b.WriteString(value)
			last = stop + len(end)
			replaced = true
		}
		pos = stop + len(end)
	}
	if !replaced {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}

package rule

import (
	"strconv"
	"strings"
)

// IndexMode says how a resolved index set filters a candidate list.
type IndexMode int

const (
	// IndexNone keeps every candidate in document order.
	IndexNone IndexMode = iota
	// IndexKeep keeps only the indexed candidates, in index-set order.
	IndexKeep
	// IndexExclude drops the indexed candidates.
	IndexExclude
)

// IndexEntry is a single index or a (start, end, step) slice. Nil bounds are
// open ends.
type IndexEntry struct {
	Slice bool
	Index int
	Start *int
	End   *int
	Step  *int
}

// IndexSpec is the parsed suffix of one selection step.
type IndexSpec struct {
	Before  string
	Mode    IndexMode
	Entries []IndexEntry
}

// ParseIndex reads the index suffix of a selection step from right to left.
// Entries are stored in scan order, so the last declared entry comes first.
func ParseIndex(step string) IndexSpec {
	rus := strings.TrimSpace(step)
	if rus == "" {
		return IndexSpec{}
	}

	exclude := false
	if strings.HasSuffix(rus, "!") {
		if trimmed := strings.TrimRight(rus[:len(rus)-1], " "); strings.HasSuffix(trimmed, "]") {
			exclude = true
			rus = trimmed
		}
	}

	if strings.HasSuffix(rus, "]") {
		if spec, ok := parseBracket(rus, exclude); ok {
			return spec
		}
		return IndexSpec{Before: strings.TrimSpace(step)}
	}
	if spec, ok := parseSuffix(rus); ok {
		return spec
	}
	return IndexSpec{Before: rus}
}

func parseBracket(rus string, exclude bool) (IndexSpec, bool) {
	var (
		entries []IndexEntry
		pending []*int
		digits  string
		minus   bool
	)
	spec := IndexSpec{Mode: IndexKeep}
	if exclude {
		spec.Mode = IndexExclude
	}

	for i := len(rus) - 2; i >= 0; i-- {
		c := rus[i]
		switch {
		case c == ' ':
			continue
		case c >= '0' && c <= '9':
			digits = string(c) + digits
			continue
		case c == '-':
			minus = true
			continue
		}

		cur := number(digits, minus)
		digits, minus = "", false
		if c == ':' {
			pending = append(pending, cur)
			continue
		}

		if len(pending) == 0 {
			if cur == nil {
				return IndexSpec{}, false
			}
			entries = append(entries, IndexEntry{Index: *cur})
		} else {
			e := IndexEntry{Slice: true, Start: cur, End: pending[len(pending)-1]}
			if len(pending) == 2 {
				e.Step = pending[0]
			}
			entries = append(entries, e)
			pending = nil
		}

		if c == '!' {
			spec.Mode = IndexExclude
			for i > 0 {
				i--
				c = rus[i]
				if c != ' ' {
					break
				}
			}
		}
		if c == '[' {
			spec.Before = rus[:i]
			spec.Entries = entries
			return spec, true
		}
		if c != ',' {
			return IndexSpec{}, false
		}
	}
	return IndexSpec{}, false
}

func parseSuffix(rus string) (IndexSpec, bool) {
	var (
		entries []IndexEntry
		digits  string
		minus   bool
	)
	for i := len(rus) - 1; i >= 0; i-- {
		c := rus[i]
		switch {
		case c == ' ':
			continue
		case c >= '0' && c <= '9':
			digits = string(c) + digits
			continue
		case c == '-':
			minus = true
			continue
		case c != '!' && c != '.' && c != ':':
			return IndexSpec{}, false
		}

		cur := number(digits, minus)
		if cur == nil {
			return IndexSpec{}, false
		}
		entries = append(entries, IndexEntry{Index: *cur})
		digits, minus = "", false
		if c == ':' {
			continue
		}
		mode := IndexKeep
		if c == '!' {
			mode = IndexExclude
		}
		return IndexSpec{Before: rus[:i], Mode: mode, Entries: entries}, true
	}
	return IndexSpec{}, false
}

func number(digits string, minus bool) *int {
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	if minus {
		n = -n
	}
	return &n
}

// Resolve turns the spec into concrete positions for n candidates. Entries
// are visited from the last stored to the first, which restores declared
// order; the result keeps first-insertion order and has no duplicates.
func (s IndexSpec) Resolve(n int) []int {
	var (
		out  []int
		seen = make(map[int]bool)
	)
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}

	for ix := len(s.Entries) - 1; ix >= 0; ix-- {
		e := s.Entries[ix]
		if !e.Slice {
			if e.Index >= 0 && e.Index < n {
				add(e.Index)
			} else if e.Index < 0 && n >= -e.Index {
				add(e.Index + n)
			}
			continue
		}
		if n == 0 {
			continue
		}

		start := clampBound(e.Start, 0, n)
		end := clampBound(e.End, n-1, n)
		rawStep := 1
		if e.Step != nil {
			rawStep = *e.Step
		}
		if start == end || rawStep >= n {
			add(start)
			continue
		}
		step := rawStep
		if step <= 0 {
			if -step < n {
				step += n
			} else {
				step = 1
			}
		}
		if step < 1 {
			step = 1
		}
		if end > start {
			for i := start; i <= end; i += step {
				add(i)
			}
		} else {
			for i := start; i >= end; i -= step {
				add(i)
			}
		}
	}
	return out
}

func clampBound(v *int, open, n int) int {
	switch {
	case v == nil:
		return open
	case *v >= 0:
		if *v < n {
			return *v
		}
		return n - 1
	case -*v <= n:
		return n + *v
	default:
		return 0
	}
}

// Apply filters items with the spec.
func Apply[T any](s IndexSpec, items []T) []T {
	if s.Mode == IndexNone {
		return items
	}
	set := s.Resolve(len(items))
	if s.Mode == IndexKeep {
		out := make([]T, 0, len(set))
		for _, i := range set {
			out = append(out, items[i])
		}
		return out
	}

	drop := make(map[int]bool, len(set))
	for _, i := range set {
		drop[i] = true
	}
	out := make([]T, 0, len(items))
	for i, it := range items {
		if !drop[i] {
			out = append(out, it)
		}
	}
	return out
}

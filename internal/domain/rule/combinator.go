package rule

// Combinator joins the alternatives of one rule body.
type Combinator string

const (
	CombNone Combinator = ""
	CombAnd  Combinator = "&&"
	CombOr   Combinator = "||"
	CombZip  Combinator = "%%"
)

var (
	// ListDelims are the combinators accepted by list-producing entry points.
	ListDelims = []string{string(CombAnd), string(CombOr), string(CombZip)}
	// StringDelims are the combinators accepted by single-string entry points.
	StringDelims = []string{string(CombAnd), string(CombOr)}
)

// Evaluate runs eval over every alternative and merges the non-empty
// results. Under || evaluation stops at the first non-empty alternative.
func Evaluate[T any](parts []string, comb Combinator, eval func(string) []T) []T {
	if len(parts) == 1 {
		return eval(parts[0])
	}
	var results [][]T
	for _, part := range parts {
		r := eval(part)
		if len(r) == 0 {
			continue
		}
		results = append(results, r)
		if comb == CombOr {
			break
		}
	}
	return Merge(comb, results)
}

// Merge combines alternative results. Zip walks the first alternative's
// positions and appends the element at that position from every
// alternative that has one.
func Merge[T any](comb Combinator, results [][]T) []T {
	if len(results) == 0 {
		return nil
	}
	switch comb {
	case CombOr:
		return results[0]
	case CombZip:
		var out []T
		for i := range results[0] {
			for _, r := range results {
				if i < len(r) {
					out = append(out, r[i])
				}
			}
		}
		return out
	default:
		var out []T
		for _, r := range results {
			out = append(out, r...)
		}
		return out
	}
}

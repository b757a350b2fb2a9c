package analyzer

import (
	"strings"

	"github.com/GriffinCanCode/rulekit/internal/providers/jsonpath"
	"github.com/GriffinCanCode/rulekit/internal/providers/regex"
	"github.com/GriffinCanCode/rulekit/internal/shared/document"
	"golang.org/x/net/html"
)

// stringify renders a stage value as text. Nodes render as markup, match
// vectors as their whole match and JSON values as JSON text.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case regex.Match:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	case []regex.Match:
		parts := make([]string, 0, len(t))
		for _, m := range t {
			parts = append(parts, stringify(m))
		}
		return strings.Join(parts, "\n")
	case float64, float32, int, int64, bool, map[string]any, []any:
		return jsonpath.Stringify(t)
	default:
		return document.String(t)
	}
}

// stringList flattens a stage value into a list of strings
func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return strings.Split(t, "\n")
	case []string:
		return t
	case regex.Match:
		return []string(t)
	case []any:
		return jsonpath.Strings(t)
	case []*html.Node:
		out := make([]string, 0, len(t))
		for _, n := range t {
			out = append(out, document.Render(n))
		}
		return out
	default:
		return []string{stringify(t)}
	}
}

// elements flattens a stage value into a list of elements
func elements(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []*html.Node:
		out := make([]any, 0, len(t))
		for _, n := range t {
			out = append(out, n)
		}
		return out
	case []regex.Match:
		out := make([]any, 0, len(t))
		for _, m := range t {
			out = append(out, m)
		}
		return out
	case []string:
		out := make([]any, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out
	default:
		return []any{t}
	}
}

// markup returns v in a form the tree and path backends accept
func markup(v any) any {
	switch v.(type) {
	case string, *html.Node, []*html.Node:
		return v
	}
	return stringify(v)
}

// jsonValue returns v in a form the JSON backend accepts
func jsonValue(v any) any {
	switch v.(type) {
	case string, []byte, map[string]any, []any, float64, bool:
		return v
	}
	return stringify(v)
}

// scriptValue converts a stage value for script bindings
func scriptValue(v any) any {
	switch t := v.(type) {
	case *html.Node, []*html.Node:
		return document.String(t)
	case regex.Match:
		return []string(t)
	case []regex.Match:
		out := make([][]string, 0, len(t))
		for _, m := range t {
			out = append(out, m)
		}
		return out
	}
	return v
}

// Export converts an element value for serialization: nodes become markup,
// capture vectors string slices, JSON values stay as they are
func Export(v any) any {
	switch t := v.(type) {
	case *html.Node:
		return document.Render(t)
	case []*html.Node:
		out := make([]string, 0, len(t))
		for _, n := range t {
			out = append(out, document.Render(n))
		}
		return out
	case regex.Match:
		return []string(t)
	case []regex.Match:
		out := make([][]string, 0, len(t))
		for _, m := range t {
			out = append(out, m)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			out = append(out, Export(e))
		}
		return out
	}
	return v
}

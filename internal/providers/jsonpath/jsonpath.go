package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/bytedance/sonic"
	"github.com/ohler55/ojg/jp"
	"go.uber.org/zap"
)

var (
	pathCache sync.Map

	// Composite values render with stable key order and without HTML escaping
	encoder = sonic.Config{SortMapKeys: true}.Froze()
)

// Evaluator reads JSON paths from a decoded document
type Evaluator struct {
	data   any
	logger *zap.Logger
}

// New wraps content. Strings and byte slices are decoded; maps, slices and
// scalars are used directly.
func New(content any, logger *zap.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := Decode(content)
	if err != nil {
		return nil, err
	}
	return &Evaluator{data: data, logger: logger}, nil
}

// Decode returns content as a generic JSON value
func Decode(content any) (any, error) {
	var raw string
	switch v := content.(type) {
	case nil:
		return nil, fmt.Errorf("jsonpath: nil content")
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return v, nil
	}
	var out any
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil, fmt.Errorf("jsonpath: invalid json: %w", err)
	}
	return out, nil
}

// IsJSON reports whether content is a decoded JSON container or a string
// holding a JSON object or array
func IsJSON(content any) bool {
	switch v := content.(type) {
	case map[string]any, []any:
		return true
	case string:
		s := strings.TrimSpace(v)
		if !(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) &&
			!(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) {
			return false
		}
		return sonic.Valid([]byte(s))
	}
	return false
}

// String reads rule as text. Inline {$.path} templates are expanded; when
// none are present the rule itself is read and list results are joined by
// newlines.
func (e *Evaluator) String(expr string) (string, error) {
	if expr == "" {
		return "", nil
	}
	parts, sep, err := rule.SplitCode(expr, rule.StringDelims...)
	if err != nil {
		return "", err
	}
	if len(parts) > 1 {
		var out []string
		for _, part := range parts {
			s, err := e.String(part)
			if err != nil {
				return "", err
			}
			if s == "" {
				continue
			}
			out = append(out, s)
			if rule.Combinator(sep) == rule.CombOr {
				break
			}
		}
		return strings.Join(out, "\n"), nil
	}

	if s, ok := e.inner(expr); ok {
		return s, nil
	}
	v := e.read(expr)
	if list, ok := v.([]any); ok {
		return strings.Join(Strings(list), "\n"), nil
	}
	return Stringify(v), nil
}

// StringList reads rule as a list of strings
func (e *Evaluator) StringList(expr string) ([]string, error) {
	if expr == "" {
		return nil, nil
	}
	parts, sep, err := rule.SplitCode(expr, rule.ListDelims...)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(parts, rule.Combinator(sep), func(part string) []string {
		if s, ok := e.inner(part); ok {
			return []string{s}
		}
		switch v := e.read(part).(type) {
		case nil:
			return nil
		case []any:
			return Strings(v)
		default:
			return []string{Stringify(v)}
		}
	}), nil
}

// Object reads a single value
func (e *Evaluator) Object(expr string) any {
	return e.read(expr)
}

// List reads rule as a list of values. A non-list result becomes a single
// element.
func (e *Evaluator) List(expr string) ([]any, error) {
	if expr == "" {
		return nil, nil
	}
	parts, sep, err := rule.SplitCode(expr, rule.ListDelims...)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(parts, rule.Combinator(sep), func(part string) []any {
		switch v := e.read(part).(type) {
		case nil:
			return nil
		case []any:
			return v
		default:
			return []any{v}
		}
	}), nil
}

func (e *Evaluator) inner(expr string) (string, bool) {
	return rule.InnerRule(expr, "{$.", func(path string) (string, bool) {
		s, err := e.String(path)
		if err != nil {
			return "", false
		}
		return s, true
	})
}

// read evaluates one path. Definite paths yield the value itself, others
// the list of matches.
func (e *Evaluator) read(path string) any {
	x, err := compile(path)
	if err != nil {
		e.logger.Debug("invalid json path", zap.String("path", path), zap.Error(err))
		return nil
	}
	res := x.Get(e.data)
	if !definite(x) {
		return res
	}
	if len(res) == 0 {
		return nil
	}
	return res[0]
}

func compile(path string) (jp.Expr, error) {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") && !strings.HasPrefix(path, "@") {
		path = "$." + path
	}
	if v, ok := pathCache.Load(path); ok {
		return v.(jp.Expr), nil
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, err
	}
	pathCache.Store(path, x)
	return x, nil
}

func definite(x jp.Expr) bool {
	for _, f := range x {
		switch f.(type) {
		case jp.Wildcard, jp.Descent, jp.Union, jp.Slice, *jp.Filter:
			return false
		}
	}
	return true
}

// Strings renders every value with Stringify
func Strings(list []any) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, Stringify(v))
	}
	return out
}

// Stringify renders a JSON value. Integral numbers have no fraction and
// containers render as JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		s, err := encoder.MarshalToString(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return s
	default:
		return fmt.Sprint(t)
	}
}

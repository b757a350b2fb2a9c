package analyzer

import (
	"context"
	"html"
	"time"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/GriffinCanCode/rulekit/internal/providers/jsonpath"
	"github.com/GriffinCanCode/rulekit/internal/providers/regex"
	"go.uber.org/zap"
)

// Operation names used in metrics
const (
	OpString   = "string"
	OpList     = "list"
	OpElement  = "element"
	OpElements = "elements"
)

// EvalOption adjusts one evaluation
type EvalOption func(*call)

// WithContent evaluates against v instead of the current document
func WithContent(v any) EvalOption {
	return func(c *call) {
		c.content = v
		c.override = true
	}
}

// AsURL resolves string results against the base URL
func AsURL() EvalOption {
	return func(c *call) { c.url = true }
}

// Unescaped disables HTML escaping of GetString results
func Unescaped() EvalOption {
	return func(c *call) { c.unescaped = true }
}

type call struct {
	content   any
	override  bool
	isJSON    bool
	url       bool
	unescaped bool
}

func (a *Analyzer) newCall(opts []EvalOption) *call {
	c := &call{content: a.content}
	for _, opt := range opts {
		opt(c)
	}
	if c.override {
		c.isJSON = jsonpath.IsJSON(c.content)
	} else {
		c.isJSON = a.isJSON
	}
	return c
}

// child is the call used for put values, templates and script callbacks:
// same content, raw text
func (c *call) child() *call {
	return &call{content: c.content, override: c.override, isJSON: c.isJSON, unescaped: true}
}

// GetString evaluates text to a single string. Results are HTML-escaped
// unless Unescaped is given; with AsURL they are resolved instead and an
// empty result yields the base URL.
func (a *Analyzer) GetString(ctx context.Context, text string, opts ...EvalOption) (string, error) {
	if text == "" {
		return "", nil
	}
	return a.getStringText(ctx, text, a.newCall(opts))
}

// GetStringProgram is GetString for a compiled program
func (a *Analyzer) GetStringProgram(ctx context.Context, p *rule.Program, opts ...EvalOption) (string, error) {
	return a.getString(ctx, p, a.newCall(opts))
}

func (a *Analyzer) getStringText(ctx context.Context, text string, c *call) (string, error) {
	p, err := a.compiler.Compile(text, c.isJSON, false)
	if err != nil {
		a.metrics.RecordExtraction(OpString, "none", "error", 0)
		return "", err
	}
	return a.getString(ctx, p, c)
}

func (a *Analyzer) getString(ctx context.Context, p *rule.Program, c *call) (string, error) {
	start := time.Now()
	v, err := a.foldStrings(ctx, p, c, false)
	a.observe(OpString, p, start, v, err)
	if err != nil {
		return "", err
	}

	s := stringify(v)
	if c.url {
		if s == "" {
			return a.baseURL, nil
		}
		return a.urls.Resolve(a.resolveBase(), s), nil
	}
	if !c.unescaped {
		s = html.EscapeString(s)
	}
	return s, nil
}

// GetStringList evaluates text to a list of strings. With AsURL every entry
// is resolved, empties are dropped and duplicates removed.
func (a *Analyzer) GetStringList(ctx context.Context, text string, opts ...EvalOption) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	c := a.newCall(opts)
	p, err := a.compiler.Compile(text, c.isJSON, false)
	if err != nil {
		a.metrics.RecordExtraction(OpList, "none", "error", 0)
		return nil, err
	}
	return a.getStringList(ctx, p, c)
}

// GetStringListProgram is GetStringList for a compiled program
func (a *Analyzer) GetStringListProgram(ctx context.Context, p *rule.Program, opts ...EvalOption) ([]string, error) {
	return a.getStringList(ctx, p, a.newCall(opts))
}

func (a *Analyzer) getStringList(ctx context.Context, p *rule.Program, c *call) ([]string, error) {
	start := time.Now()
	v, err := a.foldStrings(ctx, p, c, true)
	a.observe(OpList, p, start, v, err)
	if err != nil {
		return nil, err
	}

	list := stringList(v)
	if !c.url {
		return list, nil
	}
	var (
		out  []string
		seen = make(map[string]bool)
	)
	base := a.resolveBase()
	for _, s := range list {
		abs := a.urls.Resolve(base, s)
		if abs == "" || seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out, nil
}

// GetElement evaluates text to one element value: nodes for selector
// rules, a capture vector for regex rules, a JSON value for JSON rules.
// A rule starting with ':' is a regex chain.
func (a *Analyzer) GetElement(ctx context.Context, text string, opts ...EvalOption) (any, error) {
	if text == "" {
		return nil, nil
	}
	c := a.newCall(opts)
	p, err := a.compiler.Compile(text, c.isJSON, true)
	if err != nil {
		a.metrics.RecordExtraction(OpElement, "none", "error", 0)
		return nil, err
	}
	return a.getElement(ctx, p, c)
}

// GetElementProgram is GetElement for a compiled program
func (a *Analyzer) GetElementProgram(ctx context.Context, p *rule.Program, opts ...EvalOption) (any, error) {
	return a.getElement(ctx, p, a.newCall(opts))
}

func (a *Analyzer) getElement(ctx context.Context, p *rule.Program, c *call) (any, error) {
	start := time.Now()
	v, err := a.foldElements(ctx, p, c, false)
	a.observe(OpElement, p, start, v, err)
	return v, err
}

// GetElements evaluates text to a list of elements
func (a *Analyzer) GetElements(ctx context.Context, text string, opts ...EvalOption) ([]any, error) {
	if text == "" {
		return nil, nil
	}
	c := a.newCall(opts)
	p, err := a.compiler.Compile(text, c.isJSON, true)
	if err != nil {
		a.metrics.RecordExtraction(OpElements, "none", "error", 0)
		return nil, err
	}
	return a.getElements(ctx, p, c)
}

// GetElementsProgram is GetElements for a compiled program
func (a *Analyzer) GetElementsProgram(ctx context.Context, p *rule.Program, opts ...EvalOption) ([]any, error) {
	return a.getElements(ctx, p, a.newCall(opts))
}

func (a *Analyzer) getElements(ctx context.Context, p *rule.Program, c *call) ([]any, error) {
	start := time.Now()
	v, err := a.foldElements(ctx, p, c, true)
	a.observe(OpElements, p, start, v, err)
	if err != nil {
		return nil, err
	}
	return elements(v), nil
}

// foldStrings feeds each stage's output into the next stage. A stage with
// only a replace directive rewrites the current value in single-string
// evaluation.
func (a *Analyzer) foldStrings(ctx context.Context, p *rule.Program, c *call, list bool) (any, error) {
	result := c.content
	if result == nil || p.Empty() {
		return nil, nil
	}
	for i, sr := range p.Rules {
		if err := a.runPuts(ctx, sr.Puts, c); err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		sub := sr.Expand(&resolver{a: a, ctx: ctx, c: c, result: result})
		if sub.Body != "" || (!list && !sub.Replace.Active()) {
			v, err := a.stringStage(ctx, sub, result, i == 0 && !c.override, list, c)
			if err != nil {
				return nil, err
			}
			result = v
		}
		if result != nil && sub.Replace.Active() {
			result = a.replace(result, sub.Replace)
		}
	}
	return result, nil
}

func (a *Analyzer) stringStage(ctx context.Context, sub rule.SubRule, in any, own, list bool, c *call) (any, error) {
	switch sub.Mode {
	case rule.ModeScript:
		return a.evalScript(ctx, sub.Body, in, c), nil
	case rule.ModeRegex:
		return sub.Body, nil
	case rule.ModeJSON:
		e, err := a.jsonFor(in, own)
		if err != nil {
			return nil, a.stageError(sub, err)
		}
		if list {
			l, err := e.StringList(sub.Body)
			return listOrNil(l), a.stageError(sub, err)
		}
		s, err := e.String(sub.Body)
		return s, a.stageError(sub, err)
	case rule.ModeXPath:
		e, err := a.pathFor(in, own)
		if err != nil {
			return nil, a.stageError(sub, err)
		}
		if list {
			l, err := e.StringList(sub.Body)
			return listOrNil(l), a.stageError(sub, err)
		}
		s, err := e.String(sub.Body)
		return s, a.stageError(sub, err)
	default:
		s, err := a.treeFor(in, own)
		if err != nil {
			return nil, a.stageError(sub, err)
		}
		if list {
			l, err := s.StringList(sub.Body, sub.CSS)
			return listOrNil(l), a.stageError(sub, err)
		}
		var out string
		if c.url {
			out, err = s.String0(sub.Body, sub.CSS)
		} else {
			out, err = s.String(sub.Body, sub.CSS)
		}
		return out, a.stageError(sub, err)
	}
}

func (a *Analyzer) foldElements(ctx context.Context, p *rule.Program, c *call, many bool) (any, error) {
	result := c.content
	if result == nil || p.Empty() {
		return nil, nil
	}
	for i, sr := range p.Rules {
		if err := a.runPuts(ctx, sr.Puts, c); err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		sub := sr.Expand(&resolver{a: a, ctx: ctx, c: c, result: result})
		v, err := a.elementStage(ctx, sub, result, i == 0 && !c.override, many, c)
		if err != nil {
			return nil, err
		}
		result = v
		if result != nil && sub.Replace.Active() {
			result = a.replace(result, sub.Replace)
		}
	}
	return result, nil
}

func (a *Analyzer) elementStage(ctx context.Context, sub rule.SubRule, in any, own, many bool, c *call) (any, error) {
	switch sub.Mode {
	case rule.ModeScript:
		return a.evalScript(ctx, sub.Body, in, c), nil
	case rule.ModeRegex:
		stages := regex.Stages(sub.Body)
		if many {
			if ms := a.regex.Elements(stringify(in), stages); len(ms) > 0 {
				return ms, nil
			}
			return nil, nil
		}
		if m := a.regex.Element(stringify(in), stages); m != nil {
			return m, nil
		}
		return nil, nil
	case rule.ModeJSON:
		e, err := a.jsonFor(in, own)
		if err != nil {
			return nil, a.stageError(sub, err)
		}
		if !many {
			return e.Object(sub.Body), nil
		}
		l, err := e.List(sub.Body)
		if len(l) == 0 {
			return nil, a.stageError(sub, err)
		}
		return l, a.stageError(sub, err)
	case rule.ModeXPath:
		e, err := a.pathFor(in, own)
		if err != nil {
			return nil, a.stageError(sub, err)
		}
		nodes, err := e.Elements(sub.Body)
		if len(nodes) == 0 {
			return nil, a.stageError(sub, err)
		}
		return nodes, nil
	default:
		s, err := a.treeFor(in, own)
		if err != nil {
			return nil, a.stageError(sub, err)
		}
		nodes, err := s.Elements(sub.Body, sub.CSS)
		if len(nodes) == 0 {
			return nil, a.stageError(sub, err)
		}
		return nodes, nil
	}
}

// runPuts resolves each put value as a string rule and stores it before
// the stage runs
func (a *Analyzer) runPuts(ctx context.Context, puts []rule.Put, c *call) error {
	for _, put := range puts {
		v, err := a.getStringText(ctx, put.Rule, c.child())
		if err != nil {
			return err
		}
		a.Put(put.Key, v)
	}
	return nil
}

// replace applies a directive per element for string lists and to the
// whole rendered value otherwise
func (a *Analyzer) replace(v any, r rule.Replace) any {
	if list, ok := v.([]string); ok {
		out := make([]string, len(list))
		for i, s := range list {
			out[i] = a.regex.Replace(s, r)
		}
		return out
	}
	return a.regex.Replace(stringify(v), r)
}

func (a *Analyzer) observe(op string, p *rule.Program, start time.Time, v any, err error) {
	mode := "none"
	if !p.Empty() {
		mode = p.Rules[0].Mode.String()
	}
	status := "ok"
	switch {
	case err != nil:
		status = "error"
		a.logger.Debug("rule evaluation failed", zap.String("rule", p.Source), zap.Error(err))
	case v == nil:
		status = "empty"
	}
	a.metrics.RecordExtraction(op, mode, status, time.Since(start))
}

func listOrNil(l []string) any {
	if len(l) == 0 {
		return nil
	}
	return l
}

// resolver supplies template values from the current stage
type resolver struct {
	a      *Analyzer
	ctx    context.Context
	c      *call
	result any
}

func (r *resolver) Group(i int) (string, bool) {
	var groups []string
	switch v := r.result.(type) {
	case regex.Match:
		groups = v
	case []string:
		groups = v
	default:
		return "", false
	}
	if i < len(groups) {
		return groups[i], true
	}
	return "", false
}

func (r *resolver) Rule(text string) string {
	s, err := r.a.getStringText(r.ctx, text, r.c.child())
	if err != nil {
		r.a.logger.Debug("template rule failed", zap.String("rule", text), zap.Error(err))
	}
	return s
}

func (r *resolver) Script(code string) string {
	return stringify(r.a.evalScript(r.ctx, code, r.result, r.c))
}

func (r *resolver) Var(key string) string {
	return r.a.Get(key)
}

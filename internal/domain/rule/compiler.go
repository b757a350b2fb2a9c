package rule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Mode selects the backend that evaluates a sub-rule.
type Mode int

const (
	ModeTree Mode = iota
	ModeXPath
	ModeJSON
	// ModeRegex is the regex chain for element entry points and literal
	// template assembly for string entry points.
	ModeRegex
	ModeScript
)

func (m Mode) String() string {
	switch m {
	case ModeTree:
		return "tree"
	case ModeXPath:
		return "xpath"
	case ModeJSON:
		return "json"
	case ModeRegex:
		return "regex"
	case ModeScript:
		return "script"
	default:
		return "unknown"
	}
}

// Replace is the trailing ##pattern##replacement[##first] directive.
type Replace struct {
	Pattern     string
	Replacement string
	First       bool
}

// Active reports whether the directive has a pattern.
func (r Replace) Active() bool { return r.Pattern != "" }

// Put is one @put:{...} entry; Rule is resolved later as a string rule.
type Put struct {
	Key  string
	Rule string
}

// ParamKind classifies one piece of a templated rule.
type ParamKind int

const (
	ParamText ParamKind = iota
	ParamGroup
	ParamScript
	ParamGet
)

// Param is one piece of a templated rule.
type Param struct {
	Kind  ParamKind
	Text  string
	Group int
}

// SubRule is one compiled, mode-tagged stage of a rule chain.
type SubRule struct {
	Mode    Mode
	CSS     bool
	Body    string
	Replace Replace
	Puts    []Put
	Params  []Param
}

// Dynamic reports whether the body must be assembled per evaluation.
func (r *SubRule) Dynamic() bool { return len(r.Params) > 0 }

// Program is a compiled rule string.
type Program struct {
	Source string
	Rules  []SubRule
}

// Empty reports whether the program has no stages.
func (p *Program) Empty() bool { return p == nil || len(p.Rules) == 0 }

var (
	scriptSpan = regexp.MustCompile(`(?is)@@([^@]+?)@@|<js>(.*?)</js>|@js:(.*)$`)
	evalSpan   = regexp.MustCompile(`(?i:@get:)\{[^}]+?\}|(?s:\{\{.*?\}\})`)
	groupRef   = regexp.MustCompile(`\$\d{1,2}`)
	putMarker  = regexp.MustCompile(`(?i)@put:\{`)
)

type cacheKey struct {
	text     string
	json     bool
	allInOne bool
}

// Compiler turns rule strings into programs and caches them.
type Compiler struct {
	cache *lru.Cache[cacheKey, *Program]
}

// DefaultCacheSize bounds the compiled-rule cache when no size is given.
const DefaultCacheSize = 4096

// NewCompiler creates a compiler whose cache holds up to size programs.
func NewCompiler(size int) (*Compiler, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, *Program](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule cache: %w", err)
	}
	return &Compiler{cache: cache}, nil
}

// Compile splits text into sub-rules. isJSON steers mode inference for
// unprefixed stages; allInOne enables the leading ':' regex form used by
// element entry points.
func (c *Compiler) Compile(text string, isJSON, allInOne bool) (*Program, error) {
	key := cacheKey{text: text, json: isJSON, allInOne: allInOne}
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}
	p, err := Compile(text, isJSON, allInOne)
	if err != nil {
		return nil, err
	}
	if prev, ok, _ := c.cache.PeekOrAdd(key, p); ok {
		return prev, nil
	}
	return p, nil
}

// Len returns the number of cached programs.
func (c *Compiler) Len() int { return c.cache.Len() }

// Compile builds a program without caching.
func Compile(text string, isJSON, allInOne bool) (*Program, error) {
	p := &Program{Source: text}
	if strings.TrimSpace(text) == "" {
		return p, nil
	}

	start := 0
	regex := false
	if allInOne && strings.HasPrefix(text, ":") {
		regex = true
		start = 1
	}

	add := func(seg string) error {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil
		}
		r, err := newSubRule(seg, regex, isJSON)
		if err != nil {
			return err
		}
		p.Rules = append(p.Rules, r)
		return nil
	}

	for _, m := range scriptSpan.FindAllStringSubmatchIndex(text, -1) {
		if m[1] <= start {
			continue
		}
		if m[0] > start {
			if err := add(text[start:m[0]]); err != nil {
				return nil, err
			}
		}
		p.Rules = append(p.Rules, SubRule{Mode: ModeScript, Body: spanBody(text, m)})
		start = m[1]
	}
	if start < len(text) {
		if err := add(text[start:]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func spanBody(text string, m []int) string {
	for g := 1; g <= 3; g++ {
		if m[2*g] >= 0 {
			return strings.TrimSpace(text[m[2*g]:m[2*g+1]])
		}
	}
	return ""
}

func newSubRule(text string, regex, isJSON bool) (SubRule, error) {
	r := SubRule{}
	body := text
	switch {
	case regex:
		r.Mode = ModeRegex
	case hasPrefixFold(body, "@CSS:"):
		r.Mode, r.CSS = ModeTree, true
		body = body[len("@CSS:"):]
	case strings.HasPrefix(body, "@@"):
		r.Mode = ModeTree
		body = body[2:]
	case hasPrefixFold(body, "@XPath:"):
		r.Mode = ModeXPath
		body = body[len("@XPath:"):]
	case hasPrefixFold(body, "@Json:"):
		r.Mode = ModeJSON
		body = body[len("@Json:"):]
	case isJSON || strings.HasPrefix(body, "$.") || strings.HasPrefix(body, "$["):
		r.Mode = ModeJSON
	case strings.HasPrefix(body, "/"):
		r.Mode = ModeXPath
	default:
		r.Mode = ModeTree
	}

	body, puts, err := ExtractPut(body)
	if err != nil {
		return SubRule{}, err
	}
	r.Puts = puts

	r.Params = templateParams(body, &r.Mode)
	if len(r.Params) == 0 {
		r.Body, r.Replace = SplitReplace(body)
		return r, nil
	}
	r.Body = body
	return r, nil
}

// templateParams cuts a body into literal text, {{...}}, @get:{...} and $N
// pieces. It returns nil for a body without templates. Templates ahead of
// any ## switch the mode to template assembly.
func templateParams(body string, mode *Mode) []Param {
	var params []Param
	dynamic := false
	start := 0

	spans := evalSpan.FindAllStringIndex(body, -1)
	if len(spans) > 0 {
		head := body[:spans[0][0]]
		if *mode != ModeScript && *mode != ModeRegex && (spans[0][0] == 0 || !strings.Contains(head, "##")) {
			*mode = ModeRegex
		}
		dynamic = true
	}
	for _, sp := range spans {
		if sp[0] > start {
			params = append(params, groupParams(body[start:sp[0]], mode, &dynamic)...)
		}
		tok := body[sp[0]:sp[1]]
		if strings.HasPrefix(tok, "{{") {
			params = append(params, Param{Kind: ParamScript, Text: tok[2 : len(tok)-2]})
		} else {
			params = append(params, Param{Kind: ParamGet, Text: tok[len("@get:{") : len(tok)-1]})
		}
		start = sp[1]
	}
	if start < len(body) {
		params = append(params, groupParams(body[start:], mode, &dynamic)...)
	}
	if !dynamic {
		return nil
	}
	return params
}

func groupParams(text string, mode *Mode, dynamic *bool) []Param {
	head, _, _ := strings.Cut(text, "##")
	refs := groupRef.FindAllStringIndex(head, -1)
	if len(refs) == 0 {
		return []Param{{Kind: ParamText, Text: text}}
	}
	*dynamic = true
	if *mode != ModeScript && *mode != ModeRegex {
		*mode = ModeRegex
	}

	var params []Param
	start := 0
	for _, ref := range refs {
		if ref[0] > start {
			params = append(params, Param{Kind: ParamText, Text: text[start:ref[0]]})
		}
		n, _ := strconv.Atoi(text[ref[0]+1 : ref[1]])
		params = append(params, Param{Kind: ParamGroup, Text: text[ref[0]:ref[1]], Group: n})
		start = ref[1]
	}
	if start < len(text) {
		params = append(params, Param{Kind: ParamText, Text: text[start:]})
	}
	return params
}

// SplitReplace separates a body from its ##pattern##replacement[##first]
// suffix. A fourth part, whatever it holds, selects first-match-only.
func SplitReplace(body string) (string, Replace) {
	parts := strings.SplitN(body, "##", 4)
	rep := Replace{}
	if len(parts) > 1 {
		rep.Pattern = parts[1]
	}
	if len(parts) > 2 {
		rep.Replacement = parts[2]
	}
	if len(parts) > 3 {
		rep.First = true
	}
	return strings.TrimSpace(parts[0]), rep
}

// Resolver supplies template values while a dynamic sub-rule is assembled.
type Resolver interface {
	// Group returns capture i of the previous regex result. ok is false
	// when the previous result was not a capture vector or has no capture
	// i; the $N text is then kept literally.
	Group(i int) (value string, ok bool)
	Rule(text string) string
	Script(code string) string
	Var(key string) string
}

// Expand returns the sub-rule with its body assembled from res.
func (r SubRule) Expand(res Resolver) SubRule {
	if !r.Dynamic() {
		return r
	}
	var b strings.Builder
	for _, p := range r.Params {
		switch p.Kind {
		case ParamGroup:
			if v, ok := res.Group(p.Group); ok {
				b.WriteString(v)
			} else {
				b.WriteString(p.Text)
			}
		case ParamScript:
			if IsRule(p.Text) {
				b.WriteString(res.Rule(p.Text))
			} else {
				b.WriteString(res.Script(p.Text))
			}
		case ParamGet:
			b.WriteString(res.Var(p.Text))
		default:
			b.WriteString(p.Text)
		}
	}
	out := r
	out.Params = nil
	out.Body, out.Replace = SplitReplace(b.String())
	return out
}

// IsRule reports whether a {{...}} body is a selector rule rather than a
// script.
func IsRule(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "@") || strings.HasPrefix(s, "$.") ||
		strings.HasPrefix(s, "$[") || strings.HasPrefix(s, "//")
}

// ExtractPut removes every @put:{...} object from text and returns the
// parsed entries sorted by key. An unbalanced or unparseable object is a
// *SyntaxError.
func ExtractPut(text string) (string, []Put, error) {
	loc := putMarker.FindStringIndex(text)
	if loc == nil {
		return text, nil, nil
	}

	var (
		b    strings.Builder
		vals = map[string]any{}
	)
	pos := 0
	for loc != nil {
		open := pos + loc[1] - 1
		end, ok := chompCode(text, open)
		if !ok {
			return "", nil, &SyntaxError{Rule: text, Prefix: text[:open]}
		}
		b.WriteString(text[pos : pos+loc[0]])

		var obj map[string]any
		if err := sonic.UnmarshalString(text[open:end], &obj); err != nil {
			return "", nil, &SyntaxError{Rule: text, Prefix: text[:open]}
		}
		for k, v := range obj {
			vals[k] = v
		}
		pos = end
		loc = putMarker.FindStringIndex(text[pos:])
	}
	b.WriteString(text[pos:])

	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	puts := make([]Put, 0, len(keys))
	for _, k := range keys {
		v, ok := vals[k].(string)
		if !ok {
			v = fmt.Sprint(vals[k])
		}
		puts = append(puts, Put{Key: k, Rule: v})
	}
	return b.String(), puts, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

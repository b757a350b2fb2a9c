package xpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/GriffinCanCode/rulekit/internal/shared/document"
	"github.com/antchfx/htmlquery"
	xp "github.com/antchfx/xpath"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Evaluator runs XPath rules against HTML content. It is not safe for
// concurrent use.
type Evaluator struct {
	roots  []*html.Node
	exprs  map[string]*xp.Expr
	logger *zap.Logger
}

// New wraps content. Bare table rows and cells are wrapped in table markup
// before parsing so the parser keeps them.
func New(content any, logger *zap.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var roots []*html.Node
	switch v := content.(type) {
	case nil:
		return nil, fmt.Errorf("xpath: nil content")
	case *html.Node:
		roots = []*html.Node{v}
	case []*html.Node:
		roots = v
	default:
		doc, err := htmlquery.Parse(strings.NewReader(wrapFragment(document.String(content))))
		if err != nil {
			return nil, fmt.Errorf("xpath: %w", err)
		}
		roots = []*html.Node{doc}
	}
	return &Evaluator{roots: roots, exprs: make(map[string]*xp.Expr), logger: logger}, nil
}

func wrapFragment(s string) string {
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(trimmed, "</td>") && !strings.HasPrefix(trimmed, "<tr"):
		return "<table><tr>" + s + "</tr></table>"
	case strings.HasSuffix(trimmed, "</tr>") || strings.HasSuffix(trimmed, "</tbody>"):
		return "<table>" + s + "</table>"
	}
	return s
}

// Elements returns the nodes selected by expr
func (e *Evaluator) Elements(expr string) ([]*html.Node, error) {
	if expr == "" {
		return nil, nil
	}
	parts, sep, err := rule.Split(expr, rule.ListDelims...)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(parts, rule.Combinator(sep), func(part string) []*html.Node {
		nodes, _ := e.query(part)
		return nodes
	}), nil
}

// StringList returns the text of every selected node, or the value of a
// scalar expression such as count() or string()
func (e *Evaluator) StringList(expr string) ([]string, error) {
	if expr == "" {
		return nil, nil
	}
	parts, sep, err := rule.Split(expr, rule.ListDelims...)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(parts, rule.Combinator(sep), e.texts), nil
}

// String joins the selected strings with newlines. Only && and || are
// recognized.
func (e *Evaluator) String(expr string) (string, error) {
	if expr == "" {
		return "", nil
	}
	parts, sep, err := rule.Split(expr, rule.StringDelims...)
	if err != nil {
		return "", err
	}
	list := rule.Evaluate(parts, rule.Combinator(sep), func(part string) []string {
		if s := strings.Join(e.texts(part), "\n"); s != "" {
			return []string{s}
		}
		return nil
	})
	return strings.Join(list, "\n"), nil
}

func (e *Evaluator) texts(part string) []string {
	nodes, scalar := e.query(part)
	if scalar != nil {
		if s := formatScalar(scalar); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, htmlquery.InnerText(n))
	}
	return out
}

// query evaluates one expression against every root. A non-node result is
// returned as scalar.
func (e *Evaluator) query(src string) ([]*html.Node, any) {
	src = strings.TrimSpace(src)
	expr, err := e.compile(src)
	if err != nil {
		e.logger.Debug("invalid xpath", zap.String("expr", src), zap.Error(err))
		return nil, nil
	}

	var out []*html.Node
	for _, root := range e.roots {
		switch v := expr.Evaluate(htmlquery.CreateXPathNavigator(root)).(type) {
		case *xp.NodeIterator:
			out = appendNodes(out, v)
		default:
			if len(e.roots) == 1 {
				return nil, v
			}
		}
	}
	return out, nil
}

// appendNodes drains it into out, skipping nodes already present. Attribute
// results become an element named after the attribute holding its value as
// text, the shape htmlquery gives them.
func appendNodes(out []*html.Node, it *xp.NodeIterator) []*html.Node {
	seen := make(map[*html.Node]bool, len(out))
	for _, n := range out {
		seen[n] = true
	}
	for it.MoveNext() {
		nav, ok := it.Current().(*htmlquery.NodeNavigator)
		if !ok {
			continue
		}
		n := nav.Current()
		if nav.NodeType() == xp.AttributeNode {
			n = &html.Node{
				Type:       html.ElementNode,
				Data:       nav.LocalName(),
				FirstChild: &html.Node{Type: html.TextNode, Data: nav.Value()},
			}
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Compiled expressions keep iteration state, so they are cached per
// evaluator
func (e *Evaluator) compile(src string) (*xp.Expr, error) {
	if expr, ok := e.exprs[src]; ok {
		return expr, nil
	}
	expr, err := xp.Compile(src)
	if err != nil {
		return nil, err
	}
	e.exprs[src] = expr
	return expr, nil
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

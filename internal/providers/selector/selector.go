package selector

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/GriffinCanCode/rulekit/internal/shared/document"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Extraction step names
const (
	KindText      = "text"
	KindTextNodes = "textNodes"
	KindOwnText   = "ownText"
	KindHTML      = "html"
	KindAll       = "all"
)

// Elements whose boundaries separate words in extracted text
const blockSelector = "address, article, aside, blockquote, br, dd, div, dl, dt, " +
	"fieldset, figcaption, figure, footer, form, h1, h2, h3, h4, h5, h6, " +
	"header, hr, li, main, nav, ol, p, pre, section, table, td, th, tr, ul"

// Selector evaluates tree-selector rules against one or more HTML roots
type Selector struct {
	roots  []*goquery.Selection
	logger *zap.Logger
}

// New wraps content. Strings are parsed as HTML; nodes and selections are
// used as they are.
func New(content any, logger *zap.Logger) (*Selector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nodes, err := nodesOf(content)
	if err != nil {
		return nil, err
	}
	roots := make([]*goquery.Selection, 0, len(nodes))
	for _, n := range nodes {
		roots = append(roots, goquery.NewDocumentFromNode(n).Selection)
	}
	return &Selector{roots: roots, logger: logger}, nil
}

func nodesOf(content any) ([]*html.Node, error) {
	switch v := content.(type) {
	case *html.Node:
		return []*html.Node{v}, nil
	case []*html.Node:
		return v, nil
	case *goquery.Document:
		return v.Nodes, nil
	case *goquery.Selection:
		return v.Nodes, nil
	case nil:
		return nil, fmt.Errorf("selector: nil content")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document.String(content)))
	if err != nil {
		return nil, fmt.Errorf("selector: %w", err)
	}
	return doc.Nodes, nil
}

// Elements selects the nodes matched by expr
func (s *Selector) Elements(expr string, css bool) ([]*html.Node, error) {
	var out []*html.Node
	for _, root := range s.roots {
		sel, err := s.elements(root, expr, css)
		if err != nil {
			return nil, err
		}
		out = append(out, sel...)
	}
	return out, nil
}

// StringList extracts strings. Outside CSS mode the last @ step names the
// extraction; in CSS mode a rule without @ extracts text.
func (s *Selector) StringList(expr string, css bool) ([]string, error) {
	var out []string
	for _, root := range s.roots {
		if expr == "" {
			if t := textOf(root); t != "" {
				out = append(out, t)
			}
			continue
		}
		list, err := s.stringList(root, expr, css)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	return out, nil
}

// String joins StringList with newlines
func (s *Selector) String(expr string, css bool) (string, error) {
	list, err := s.StringList(expr, css)
	if err != nil || len(list) == 0 {
		return "", err
	}
	return strings.Join(list, "\n"), nil
}

// String0 returns the first extracted string
func (s *Selector) String0(expr string, css bool) (string, error) {
	list, err := s.StringList(expr, css)
	if err != nil || len(list) == 0 {
		return "", err
	}
	return list[0], nil
}

func (s *Selector) elements(root *goquery.Selection, expr string, css bool) ([]*html.Node, error) {
	if root.Length() == 0 || expr == "" {
		return nil, nil
	}
	parts, sep, err := rule.Split(expr, rule.ListDelims...)
	if err != nil {
		return nil, err
	}

	var firstErr error
	out := rule.Evaluate(parts, rule.Combinator(sep), func(part string) []*html.Node {
		if firstErr != nil {
			return nil
		}
		if css {
			return s.query(root, part).Nodes
		}
		steps, _, err := rule.Split(rule.TrimRule(part), "@")
		if err != nil {
			firstErr = err
			return nil
		}
		return s.walk(root, steps).Nodes
	})
	return out, firstErr
}

func (s *Selector) stringList(root *goquery.Selection, expr string, css bool) ([]string, error) {
	parts, sep, err := rule.Split(expr, rule.ListDelims...)
	if err != nil {
		return nil, err
	}

	var firstErr error
	out := rule.Evaluate(parts, rule.Combinator(sep), func(part string) []string {
		if firstErr != nil {
			return nil
		}
		if css {
			sel, kind := part, KindText
			if i := strings.LastIndex(part, "@"); i >= 0 {
				sel, kind = part[:i], part[i+1:]
			}
			matched := root
			if strings.TrimSpace(sel) != "" {
				matched = s.query(root, sel)
			}
			return extract(matched, kind)
		}

		steps, _, err := rule.Split(rule.TrimRule(part), "@")
		if err != nil {
			firstErr = err
			return nil
		}
		cur := s.walk(root, steps[:len(steps)-1])
		if cur.Length() == 0 {
			return nil
		}
		return extract(cur, steps[len(steps)-1])
	})
	return out, firstErr
}

// walk applies each step to every node of the current set. Results merge
// without duplicates, so nested containers matching the same step are
// reported once.
func (s *Selector) walk(root *goquery.Selection, steps []string) *goquery.Selection {
	cur := root
	for _, step := range steps {
		next := cur.Slice(0, 0)
		cur.Each(func(_ int, parent *goquery.Selection) {
			next = next.AddNodes(s.single(parent, step)...)
		})
		cur = next
	}
	return cur
}

// single resolves one selection step: keyword or CSS base set, then index
func (s *Selector) single(parent *goquery.Selection, step string) []*html.Node {
	spec := rule.ParseIndex(step)
	keyword, arg, hasArg := strings.Cut(spec.Before, ".")
	name, _, _ := strings.Cut(arg, ".")

	var base *goquery.Selection
	switch {
	case spec.Before == "" || keyword == "children":
		base = parent.Children()
	case hasArg && keyword == "class":
		base = parent.Find("*").FilterFunction(func(_ int, e *goquery.Selection) bool {
			return e.HasClass(name)
		})
	case hasArg && keyword == "tag":
		name = strings.ToLower(name)
		base = parent.Find("*").FilterFunction(func(_ int, e *goquery.Selection) bool {
			return goquery.NodeName(e) == name
		})
	case hasArg && keyword == "id":
		base = parent.Find("*").FilterFunction(func(_ int, e *goquery.Selection) bool {
			return e.AttrOr("id", "") == name
		})
	case hasArg && keyword == "text":
		base = parent.Find("*").FilterFunction(func(_ int, e *goquery.Selection) bool {
			return strings.Contains(ownText(e), arg)
		})
	default:
		base = s.query(parent, spec.Before)
	}
	return rule.Apply(spec, base.Nodes)
}

// query runs a CSS selector against the descendants of root
func (s *Selector) query(root *goquery.Selection, sel string) *goquery.Selection {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return root.Slice(0, 0)
	}
	matcher, err := cascadia.Compile(sel)
	if err != nil {
		s.logger.Debug("invalid css selector", zap.String("selector", sel), zap.Error(err))
		return root.Slice(0, 0)
	}
	return root.FindMatcher(matcher)
}

func extract(sel *goquery.Selection, kind string) []string {
	var out []string
	switch kind {
	case KindText:
		sel.Each(func(_ int, e *goquery.Selection) {
			if t := textOf(e); t != "" {
				out = append(out, t)
			}
		})
	case KindTextNodes:
		sel.Each(func(_ int, e *goquery.Selection) {
			var lines []string
			textNodes(e).Each(func(_ int, t *goquery.Selection) {
				if line := strings.TrimSpace(t.Text()); line != "" {
					lines = append(lines, line)
				}
			})
			if len(lines) > 0 {
				out = append(out, strings.Join(lines, "\n"))
			}
		})
	case KindOwnText:
		sel.Each(func(_ int, e *goquery.Selection) {
			if t := normalize(ownText(e)); t != "" {
				out = append(out, t)
			}
		})
	case KindHTML:
		parts := make([]string, 0, sel.Length())
		sel.Each(func(_ int, e *goquery.Selection) {
			clone := e.Clone()
			clone.Find("script, style").Remove()
			if inner, err := clone.Html(); err == nil && inner != "" {
				parts = append(parts, inner)
			}
		})
		if h := strings.Join(parts, "\n"); h != "" {
			out = append(out, h)
		}
	case KindAll:
		parts := make([]string, 0, sel.Length())
		sel.Each(func(_ int, e *goquery.Selection) {
			if outer, err := goquery.OuterHtml(e); err == nil {
				parts = append(parts, outer)
			}
		})
		out = append(out, strings.Join(parts, "\n"))
	default:
		key := strings.ToLower(kind)
		seen := make(map[string]bool)
		sel.Each(func(_ int, e *goquery.Selection) {
			v := e.AttrOr(key, "")
			if strings.TrimSpace(v) == "" || seen[v] {
				return
			}
			seen[v] = true
			out = append(out, v)
		})
	}
	return out
}

// textOf returns the normalized text of sel. Script and style bodies are
// dropped and block boundaries separate words.
func textOf(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style").Remove()
	clone.Find(blockSelector).Each(func(_ int, b *goquery.Selection) {
		b.PrependNodes(space()).AppendNodes(space())
	})
	return normalize(clone.Text())
}

func textNodes(sel *goquery.Selection) *goquery.Selection {
	return sel.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
		return c.Nodes[0].Type == html.TextNode
	})
}

// ownText concatenates the direct text children of sel
func ownText(sel *goquery.Selection) string {
	return textNodes(sel).Text()
}

func space() *html.Node {
	return &html.Node{Type: html.TextNode, Data: " "}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package selector

import (
	"errors"
	"testing"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const page = `<html><body>
<div class="book-list"><a href="/x">Book X</a></div>
<ul id="items"><li class="item">a</li><li class="item">b</li><li class="item">c</li><li class="item">d</li></ul>
<div id="content"><p>line1</p><p>line2</p><script>bad()</script></div>
<div id="tn">one<br>two<span>x</span></div>
<a class="nav" href="/n">Next Page</a>
<span class="price">¥12.5元</span>
</body></html>`

func newPage(t *testing.T) *Selector {
	t.Helper()
	s, err := New(page, nil)
	require.NoError(t, err)
	return s
}

func texts(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, textOf(goquery.NewDocumentFromNode(n).Selection))
	}
	return out
}

func TestElements(t *testing.T) {
	s := newPage(t)

	tests := []struct {
		name string
		expr string
		css  bool
		want []string
	}{
		{"bracket index", ".item[0,-1]", false, []string{"a", "d"}},
		{"suffix index", "class.item.-1", false, []string{"d"}},
		{"exclude", "class.item!0", false, []string{"b", "c", "d"}},
		{"chained steps", "id.items@tag.li[1:2]", false, []string{"b", "c"}},
		{"children", "#items@children[1]", false, []string{"b"}},
		{"or falls through", "class.missing||class.price", false, []string{"¥12.5元"}},
		{"and concatenates", "class.item.0&&class.item.1", false, []string{"a", "b"}},
		{"css mode", "ul > li:nth-child(3)", true, []string{"c"}},
		{"invalid css yields nothing", "li:bogus", true, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := s.Elements(tt.expr, tt.css)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(nodes))
		})
	}
}

func TestElementsSyntaxError(t *testing.T) {
	s := newPage(t)
	_, err := s.Elements("li[0&&b", false)

	var syntaxErr *rule.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, "li", syntaxErr.Prefix)
}

func TestStringList(t *testing.T) {
	s := newPage(t)

	tests := []struct {
		name string
		expr string
		css  bool
		want []string
	}{
		{"attribute", ".book-list@tag.a@href", false, []string{"/x"}},
		{"text", "class.item@text", false, []string{"a", "b", "c", "d"}},
		{"own text keyword", "text.Next Page@href", false, []string{"/n"}},
		{"own text keyword is case sensitive", "text.next page@href", false, nil},
		{"text nodes", "id.tn@textNodes", false, []string{"one\ntwo"}},
		{"own text", "id.tn@ownText", false, []string{"onetwo"}},
		{"css default text", ".price", true, []string{"¥12.5元"}},
		{"css attribute", ".book-list a@href", true, []string{"/x"}},
		{"attribute dedup", "tag.a@class", false, []string{"nav"}},
		{"missing", "class.none@text", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.StringList(tt.expr, tt.css)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkupExtraction(t *testing.T) {
	s := newPage(t)

	inner, err := s.String("id.content@html", false)
	require.NoError(t, err)
	assert.Equal(t, "<p>line1</p><p>line2</p>", inner)

	outer, err := s.String("class.book-list@all", false)
	require.NoError(t, err)
	assert.Equal(t, `<div class="book-list"><a href="/x">Book X</a></div>`, outer)

	// markup produced by all parses back to the same text
	again, err := New(outer, nil)
	require.NoError(t, err)
	text, err := again.String("tag.a@text", false)
	require.NoError(t, err)
	assert.Equal(t, "Book X", text)
}

func TestStringJoins(t *testing.T) {
	s := newPage(t)

	joined, err := s.String("class.item@text", false)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\nd", joined)

	first, err := s.String0("class.item@text", false)
	require.NoError(t, err)
	assert.Equal(t, "a", first)

	empty, err := s.String0("class.none@text", false)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNodeContent(t *testing.T) {
	s := newPage(t)
	items, err := s.Elements("class.item", false)
	require.NoError(t, err)
	require.Len(t, items, 4)

	sub, err := New(items[2], nil)
	require.NoError(t, err)
	got, err := sub.String("text", false)
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	_, err = New(nil, nil)
	assert.Error(t, err)
}

const nested = `<div class="w"><div class="w"><p>x</p></div></div>`

func TestNestedContainers(t *testing.T) {
	s, err := New(nested, nil)
	require.NoError(t, err)

	lists := []struct {
		name string
		expr string
		want []string
	}{
		{"tag chain", "tag.div@tag.p@text", []string{"x"}},
		{"class chain", "class.w@class.w@tag.p@text", []string{"x"}},
		{"children chain", "class.w@children@tag.p@text", []string{"x"}},
		{"css step chain", "div@p@text", []string{"x"}},
		{"indexed outer", "class.w.0@tag.p@text", []string{"x"}},
	}
	for _, tt := range lists {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.StringList(tt.expr, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	counts := []struct {
		name string
		expr string
		want int
	}{
		{"descendant only", "tag.div@tag.div", 1},
		{"root excluded", "tag.div", 2},
		{"same class twice", "class.w@class.w", 1},
		{"css chain", "div@div", 1},
	}
	for _, tt := range counts {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := s.Elements(tt.expr, false)
			require.NoError(t, err)
			assert.Len(t, nodes, tt.want)
		})
	}
}

func TestElementsKeepDocumentOrder(t *testing.T) {
	s, err := New(`<ul><li><b>1</b></li><li><b>2</b><b>3</b></li></ul>`, nil)
	require.NoError(t, err)

	got, err := s.StringList("tag.ul@tag.li@tag.b@text", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, got)

	sub, err := New(`<div><div><span>a</span></div><span>b</span></div>`, nil)
	require.NoError(t, err)
	got, err = sub.StringList("tag.div@tag.span@text", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

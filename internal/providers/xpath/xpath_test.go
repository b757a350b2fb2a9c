package xpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body><ul><li><a href="/a">A</a></li><li><a href="/b">B</a></li></ul></body></html>`

func TestStringList(t *testing.T) {
	e, err := New(page, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"attributes", "//li/a/@href", []string{"/a", "/b"}},
		{"text nodes", "//li/a/text()", []string{"A", "B"}},
		{"element text", "//li[2]", []string{"B"}},
		{"count", "count(//li)", []string{"2"}},
		{"string function", "string(//li[2]/a/@href)", []string{"/b"}},
		{"or", "//dl/dt||//a/text()", []string{"A", "B"}},
		{"zip", "//a/@href%%//a/text()", []string{"/a", "A", "/b", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.StringList(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString(t *testing.T) {
	e, err := New(page, nil)
	require.NoError(t, err)

	got, err := e.String("//a/text()")
	require.NoError(t, err)
	assert.Equal(t, "A\nB", got)

	got, err = e.String("//missing||//li[2]/a/text()")
	require.NoError(t, err)
	assert.Equal(t, "B", got)

	got, err = e.String("//a[1]/text()&&//a/@href")
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n/a\n/b", got)
}

func TestElements(t *testing.T) {
	e, err := New(page, nil)
	require.NoError(t, err)

	nodes, err := e.Elements("//li")
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	// element results can be queried again
	sub, err := New(nodes[1], nil)
	require.NoError(t, err)
	href, err := sub.String("./a/@href")
	require.NoError(t, err)
	assert.Equal(t, "/b", href)

	nodes, err = e.Elements("//li[")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestElementsFromIterator(t *testing.T) {
	e, err := New(page, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		want int
	}{
		{"union without duplicates", "//li | //li[1]", 2},
		{"overlapping axes", "//li/ancestor::ul | //ul", 1},
		{"attribute nodes", "//a/@href", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the cached expression must iterate afresh on every call
			for i := 0; i < 2; i++ {
				nodes, err := e.Elements(tt.expr)
				require.NoError(t, err)
				assert.Len(t, nodes, tt.want)
			}
		})
	}

	nodes, err := e.Elements("//a/@href")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "href", nodes[0].Data)
	assert.Equal(t, "/a", nodes[0].FirstChild.Data)
}

func TestTableFragment(t *testing.T) {
	e, err := New("<td>x</td><td>y</td>", nil)
	require.NoError(t, err)

	got, err := e.StringList("//td/text()")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)

	e, err = New("<tr><td>r</td></tr>", nil)
	require.NoError(t, err)
	got, err = e.StringList("//tr/td/text()")
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, got)
}

package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIndex(t *testing.T) {
	tests := []struct {
		name   string
		step   string
		before string
		mode   IndexMode
		n      int
		want   []int
	}{
		{name: "negative bracket", step: "li[-1]", before: "li", mode: IndexKeep, n: 5, want: []int{4}},
		{name: "inclusive slice", step: "li[1:3]", before: "li", mode: IndexKeep, n: 5, want: []int{1, 2, 3}},
		{name: "stepped slice", step: "li[1:3:2]", before: "li", mode: IndexKeep, n: 5, want: []int{1, 3}},
		{name: "step beyond length", step: "li[0:4:10]", before: "li", mode: IndexKeep, n: 5, want: []int{0}},
		{name: "trailing exclude", step: "li[0,1]!", before: "li", mode: IndexExclude, n: 5, want: []int{0, 1}},
		{name: "leading exclude", step: "li[!0,1]", before: "li", mode: IndexExclude, n: 5, want: []int{0, 1}},
		{name: "declared order", step: ".item[0,-1]", before: ".item", mode: IndexKeep, n: 4, want: []int{0, 3}},
		{name: "declared order reversed", step: ".item[-1,0]", before: ".item", mode: IndexKeep, n: 4, want: []int{3, 0}},
		{name: "reverse slice", step: "p[3:1]", before: "p", mode: IndexKeep, n: 5, want: []int{3, 2, 1}},
		{name: "open slice", step: "p[:]", before: "p", mode: IndexKeep, n: 3, want: []int{0, 1, 2}},
		{name: "open start with negative end", step: "p[:-2]", before: "p", mode: IndexKeep, n: 4, want: []int{0, 1, 2}},
		{name: "out of range dropped", step: "p[7,-9,1]", before: "p", mode: IndexKeep, n: 3, want: []int{1}},
		{name: "clamped slice", step: "p[1:99]", before: "p", mode: IndexKeep, n: 3, want: []int{1, 2}},
		{name: "index only", step: "[1]", before: "", mode: IndexKeep, n: 3, want: []int{1}},
		{name: "suffix keep", step: "tag.li.1", before: "tag.li", mode: IndexKeep, n: 3, want: []int{1}},
		{name: "suffix exclude", step: "tag.li!0", before: "tag.li", mode: IndexExclude, n: 3, want: []int{0}},
		{name: "suffix list", step: "tag.li.0:2", before: "tag.li", mode: IndexKeep, n: 3, want: []int{0, 2}},
		{name: "suffix negative", step: "class.x.-1", before: "class.x", mode: IndexKeep, n: 3, want: []int{2}},
		{name: "plain selector", step: "tag.a", before: "tag.a", mode: IndexNone},
		{name: "attribute selector", step: "a[href]", before: "a[href]", mode: IndexNone},
		{name: "attribute selector with digits", step: "a[data-id=5]", before: "a[data-id=5]", mode: IndexNone},
		{name: "pseudo class", step: "li:nth-child(2)", before: "li:nth-child(2)", mode: IndexNone},
		{name: "colon suffix without terminator", step: "h1.title:2", before: "h1.title:2", mode: IndexNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := ParseIndex(tt.step)
			assert.Equal(t, tt.before, spec.Before)
			assert.Equal(t, tt.mode, spec.Mode)
			if tt.mode != IndexNone {
				assert.Equal(t, tt.want, spec.Resolve(tt.n))
			}
		})
	}
}

func TestApply(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, []string{"c", "d", "e"}, Apply(ParseIndex("li[0,1]!"), items))
	assert.Equal(t, []string{"e", "a"}, Apply(ParseIndex("li[-1,0]"), items))
	assert.Equal(t, []string{"a", "c", "e"}, Apply(ParseIndex("li[::2]"), items))
	assert.Equal(t, items, Apply(ParseIndex("li"), items))
	assert.Empty(t, Apply(ParseIndex("li[9]"), items))
	assert.Empty(t, Apply(ParseIndex("li[0:2]"), []string{}))
}

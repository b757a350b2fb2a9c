package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		candidate string
		want      string
	}{
		{"relative path", "https://s.example/", "/x", "https://s.example/x"},
		{"relative to directory", "https://s.example/a/b.html", "c.html", "https://s.example/a/c.html"},
		{"parent directory", "https://s.example/a/b/", "../c", "https://s.example/a/c"},
		{"protocol relative", "https://s.example/", "//cdn.example/i.png", "https://cdn.example/i.png"},
		{"query only", "https://s.example/list?p=1", "?p=2", "https://s.example/list?p=2"},
		{"absolute unchanged", "https://s.example/", "http://o.example/y", "http://o.example/y"},
		{"data uri unchanged", "https://s.example/", "data:image/png;base64,AA", "data:image/png;base64,AA"},
		{"javascript dropped", "https://s.example/", "javascript:void(0)", ""},
		{"mailto dropped", "https://s.example/", "mailto:a@b.c", ""},
		{"tel dropped", "https://s.example/", "TEL:123", ""},
		{"no base", "", "/x", "/x"},
		{"trimmed", "https://s.example/", "  /x \n", "https://s.example/x"},
		{"bad base", "://bad", "/x", "/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveAbsolute(tt.base, tt.candidate))
		})
	}
}

func TestBaseURLAndHost(t *testing.T) {
	assert.Equal(t, "https://s.example:8443", BaseURL("https://s.example:8443/a/b?c=d"))
	assert.Equal(t, "", BaseURL("/relative"))
	assert.Equal(t, "s.example", Host("https://s.example:8443/a"))
}

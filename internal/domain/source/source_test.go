package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSource = `
name: Example
url: https://s.example/
variables:
  token: abc
list: class.book
fields:
  title: tag.a@text
  link: tag.a@href
urlFields: [link]
`

const tomlSource = `
name = "Example"
url = "https://s.example/"
list = "class.book"
urlFields = ["link"]

[fields]
title = "tag.a@text"
link = "tag.a@href"
`

const jsonSource = `{"name":"Example","url":"https://s.example/","list":"$.books[*]","fields":{"title":"$.title"}}`

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		list   string
		fields []string
	}{
		{"yaml", yamlSource, FormatYAML, "class.book", []string{"link", "title"}},
		{"yml alias", yamlSource, "yml", "class.book", []string{"link", "title"}},
		{"toml", tomlSource, FormatTOML, "class.book", []string{"link", "title"}},
		{"json", jsonSource, FormatJSON, "$.books[*]", []string{"title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Decode([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, "Example", src.Name)
			assert.Equal(t, tt.list, src.List)
			assert.Equal(t, tt.fields, src.FieldNames())
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte(`{"name":""}`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = Decode([]byte(`{"name":"x","fields":{"a":"b"},"urlFields":["c"]}`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = Decode([]byte("name: ["), FormatYAML)
	assert.Error(t, err)

	_, err = Decode([]byte("x"), "ini")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSource), 0o644))

	src, err := Load(path)
	require.NoError(t, err)
	assert.True(t, src.IsURLField("link"))
	assert.False(t, src.IsURLField("title"))

	v, ok := src.Vars().Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.Equal(t, "https://s.example/", src.Key())

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestBookKinds(t *testing.T) {
	b := &Book{Kind: "fantasy, epic\n\nlong"}
	assert.Equal(t, []string{"fantasy", "epic", "long"}, b.Kinds())

	b.Vars().Put("k", "v")
	v, _ := b.Vars().Get("k")
	assert.Equal(t, "v", v)
}

package document

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("utf-8 html", func(t *testing.T) {
		out, err := Decode([]byte("<html><body><p>héllo</p></body></html>"), "")
		require.NoError(t, err)
		assert.Contains(t, out, "héllo")
	})

	t.Run("gbk via meta tag", func(t *testing.T) {
		data := append([]byte(`<html><head><meta charset="gbk"></head><body><p>`), 0xD6, 0xD0, 0xCE, 0xC4)
		data = append(data, []byte("</p></body></html>")...)
		out, err := Decode(data, "")
		require.NoError(t, err)
		assert.Contains(t, out, "中文")
	})

	t.Run("gbk via content type", func(t *testing.T) {
		data := append([]byte("<p>"), 0xD6, 0xD0, 0xCE, 0xC4)
		out, err := Decode(data, "text/html; charset=GBK")
		require.NoError(t, err)
		assert.Equal(t, "<p>中文", out)
	})

	t.Run("gzip", func(t *testing.T) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write([]byte(`{"a":1}`))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		out, err := Decode(buf.Bytes(), "")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, out)
	})

	t.Run("binary rejected", func(t *testing.T) {
		png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
		_, err := Decode(png, "")
		assert.ErrorIs(t, err, ErrBinaryContent)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode(nil, "")
		assert.ErrorIs(t, err, ErrEmpty)
	})
}

func TestRender(t *testing.T) {
	doc, err := ParseHTML(`<div id="a"><b>x</b>y</div>`)
	require.NoError(t, err)

	body := doc.FirstChild.LastChild
	div := body.FirstChild
	assert.Equal(t, `<div id="a"><b>x</b>y</div>`, Render(div))
	assert.Equal(t, `<b>x</b>y`, RenderInner(div))
	assert.Equal(t, `<div id="a"><b>x</b>y</div>`, String(div))
	assert.Equal(t, "a\nb", String([]string{"a", "b"}))
	assert.Equal(t, "12", String(12))
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	files := []string{"a.html", "nested/b.html", "nested/deep/c.html", "nested/d.json"}
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("<p>x</p>"), 0o644))
	}

	matches, err := Find(context.Background(), root, "**/*.html")
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	matches, err = Find(context.Background(), root, "nested/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "nested/d.json")}, matches)

	_, err = Find(context.Background(), root, "[")
	assert.Error(t, err)
}

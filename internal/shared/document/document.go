package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxSize limits decoded documents to 10MB
const MaxSize = 10 * 1024 * 1024

var (
	ErrEmpty         = errors.New("document is empty")
	ErrTooLarge      = fmt.Errorf("document exceeds maximum size of %d bytes", MaxSize)
	ErrBinaryContent = errors.New("document is not text")
)

var gzipMagic = []byte{0x1f, 0x8b}

// Decode turns raw bytes into UTF-8 text. Gzip payloads are inflated,
// binary payloads rejected and the charset taken from contentType, a meta
// tag or byte-level detection, in that order.
func Decode(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if bytes.HasPrefix(data, gzipMagic) {
		inflated, err := gunzip(data)
		if err != nil {
			return "", err
		}
		data = inflated
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	if !IsText(data) {
		return "", ErrBinaryContent
	}

	label := DetectCharset(data, contentType)
	if label == "utf-8" {
		return string(data), nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return string(data), nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", label, err)
	}
	return string(out), nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to inflate gzip: %w", err)
	}
	return out, nil
}

// IsText reports whether data looks like a text document
func IsText(data []byte) bool {
	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		s := m.String()
		if strings.HasPrefix(s, "text/") ||
			s == "application/json" ||
			s == "application/xml" ||
			s == "application/javascript" {
			return true
		}
	}
	return false
}

// DetectCharset picks the charset label for data
func DetectCharset(data []byte, contentType string) string {
	_, name, certain := charset.DetermineEncoding(data, contentType)
	if certain {
		return strings.ToLower(name)
	}
	if utf8.Valid(data) {
		return "utf-8"
	}
	// windows-1252 is the fallback when no meta tag declared anything
	if name != "" && name != "windows-1252" {
		return strings.ToLower(name)
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	label := strings.ToLower(result.Charset)
	if label == "gb-18030" {
		label = "gb18030"
	}
	return label
}

// ParseHTML parses a markup string into a node tree
func ParseHTML(s string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// Render returns the outer markup of n
func Render(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// RenderInner returns the markup of n's children
func RenderInner(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}

// String renders any content value as text. Nodes render as markup.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case *html.Node:
		return Render(t)
	case []*html.Node:
		parts := make([]string, 0, len(t))
		for _, n := range t {
			parts = append(parts, Render(n))
		}
		return strings.Join(parts, "\n")
	case []string:
		return strings.Join(t, "\n")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

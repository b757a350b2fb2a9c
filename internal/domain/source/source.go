package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GriffinCanCode/rulekit/internal/domain/scope"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Rule-set file formats
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

var ErrInvalidSource = errors.New("invalid source")

// Source is a rule set: a list rule selecting records and named field
// rules evaluated against each record
type Source struct {
	Name      string            `yaml:"name" toml:"name" json:"name"`
	URL       string            `yaml:"url" toml:"url" json:"url"`
	Header    map[string]string `yaml:"header,omitempty" toml:"header,omitempty" json:"header,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty" toml:"variables,omitempty" json:"variables,omitempty"`
	List      string            `yaml:"list" toml:"list" json:"list"`
	Fields    map[string]string `yaml:"fields" toml:"fields" json:"fields"`
	URLFields []string          `yaml:"urlFields,omitempty" toml:"urlFields,omitempty" json:"urlFields,omitempty"`

	vars *scope.Map
}

// Record is one extracted item keyed by field name
type Record map[string]string

// Vars returns the source's variable store, seeded from Variables
func (s *Source) Vars() *scope.Map {
	if s.vars == nil {
		s.vars = scope.NewMap(s.Variables)
	}
	return s.vars
}

// Key identifies the source in logs
func (s *Source) Key() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Name
}

// FieldNames returns field names in stable order
func (s *Source) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsURLField reports whether a field's result is resolved as a URL
func (s *Source) IsURLField(name string) bool {
	for _, f := range s.URLFields {
		if f == name {
			return true
		}
	}
	return false
}

// Validate checks required fields
func (s *Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSource)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: at least one field rule is required", ErrInvalidSource)
	}
	for _, f := range s.URLFields {
		if _, ok := s.Fields[f]; !ok {
			return fmt.Errorf("%w: url field %q has no rule", ErrInvalidSource, f)
		}
	}
	return nil
}

// Decode parses a rule set in the given format
func Decode(data []byte, format string) (*Source, error) {
	var (
		src Source
		err error
	)
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		err = yaml.Unmarshal(data, &src)
	case FormatTOML:
		err = toml.Unmarshal(data, &src)
	case FormatJSON:
		err = sonic.Unmarshal(data, &src)
	default:
		return nil, fmt.Errorf("unsupported source format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s source: %w", format, err)
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return &src, nil
}

// Load reads a rule set, choosing the format by file extension
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return Decode(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// Book is the metadata record rules may read and store variables on
type Book struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Kind   string `json:"kind,omitempty"`

	vars *scope.Map
}

// Vars returns the book's variable store
func (b *Book) Vars() *scope.Map {
	if b.vars == nil {
		b.vars = scope.NewMap(nil)
	}
	return b.vars
}

// Kinds splits Kind on commas and newlines, dropping blanks
func (b *Book) Kinds() []string {
	var out []string
	for _, k := range strings.FieldsFunc(b.Kind, func(r rune) bool { return r == ',' || r == '\n' }) {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Chapter is a chapter record with its own variables
type Chapter struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Index int    `json:"index"`

	vars *scope.Map
}

// Vars returns the chapter's variable store
func (c *Chapter) Vars() *scope.Map {
	if c.vars == nil {
		c.vars = scope.NewMap(nil)
	}
	return c.vars
}

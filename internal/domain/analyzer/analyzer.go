package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/GriffinCanCode/rulekit/internal/domain/scope"
	"github.com/GriffinCanCode/rulekit/internal/domain/source"
	"github.com/GriffinCanCode/rulekit/internal/providers/fetch"
	"github.com/GriffinCanCode/rulekit/internal/providers/jsonpath"
	"github.com/GriffinCanCode/rulekit/internal/providers/regex"
	"github.com/GriffinCanCode/rulekit/internal/providers/selector"
	"github.com/GriffinCanCode/rulekit/internal/providers/xpath"
	"github.com/GriffinCanCode/rulekit/internal/shared/urlutil"
	"go.uber.org/zap"
)

var ErrNilContent = errors.New("content cannot be nil")

// ScriptEngine evaluates script stages. bindings become script globals.
type ScriptEngine interface {
	Eval(ctx context.Context, script string, bindings map[string]any) (any, error)
}

// Fetcher loads url specs for java.ajax
type Fetcher interface {
	Get(ctx context.Context, spec, base string) (*fetch.Response, error)
}

// Metrics receives extraction and script outcomes
type Metrics interface {
	RecordExtraction(op, mode, status string, duration time.Duration)
	RecordScript(status string)
}

// Analyzer evaluates rules against one current document. It is not safe
// for concurrent use; the compiler, global store, script engine and
// fetcher it holds may be shared.
type Analyzer struct {
	compiler *rule.Compiler
	scripts  ScriptEngine
	fetcher  Fetcher
	metrics  Metrics
	global   scope.Store
	regex    *regex.Chain
	urls     *urlutil.Resolver
	logger   *zap.Logger

	content        any
	isJSON         bool
	baseURL        string
	redirectURL    string
	nextChapterURL string
	source         *source.Source
	book           *source.Book
	chapter        *source.Chapter

	// adapters over content, rebuilt after SetContent
	tree *selector.Selector
	path *xpath.Evaluator
	json *jsonpath.Evaluator
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithCompiler shares a compiled-rule cache
func WithCompiler(c *rule.Compiler) Option {
	return func(a *Analyzer) { a.compiler = c }
}

// WithScriptEngine enables script stages
func WithScriptEngine(e ScriptEngine) Option {
	return func(a *Analyzer) { a.scripts = e }
}

// WithFetcher enables java.ajax in scripts
func WithFetcher(f Fetcher) Option {
	return func(a *Analyzer) { a.fetcher = f }
}

// WithMetrics records outcomes
func WithMetrics(m Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithGlobal shares the outermost variable store
func WithGlobal(s scope.Store) Option {
	return func(a *Analyzer) { a.global = s }
}

// WithRegex shares a regex chain evaluator
func WithRegex(c *regex.Chain) Option {
	return func(a *Analyzer) { a.regex = c }
}

// New creates an analyzer
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.compiler == nil {
		c, err := rule.NewCompiler(rule.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		a.compiler = c
	}
	if a.global == nil {
		g, err := scope.NewGlobal(scope.DefaultGlobalSize)
		if err != nil {
			return nil, err
		}
		a.global = g
	}
	if a.regex == nil {
		a.regex = regex.New(regex.DefaultTimeout, a.logger)
	}
	if a.metrics == nil {
		a.metrics = nopMetrics{}
	}
	a.urls = urlutil.NewResolver(a.logger)
	return a, nil
}

// SetContent replaces the current document. An empty baseURL keeps the
// previous one.
func (a *Analyzer) SetContent(content any, baseURL string) error {
	if content == nil {
		return ErrNilContent
	}
	a.content = content
	a.isJSON = jsonpath.IsJSON(content)
	a.tree, a.path, a.json = nil, nil, nil
	a.SetBaseURL(baseURL)
	return nil
}

// Content returns the current document
func (a *Analyzer) Content() any { return a.content }

// SetBaseURL sets the base for URL results; "" is ignored
func (a *Analyzer) SetBaseURL(baseURL string) {
	if baseURL != "" {
		a.baseURL = baseURL
	}
}

// BaseURL returns the current base URL
func (a *Analyzer) BaseURL() string { return a.baseURL }

// SetRedirectURL sets the URL relative results resolve against. Invalid
// URLs are rejected and the previous value kept.
func (a *Analyzer) SetRedirectURL(u string) error {
	if _, err := url.Parse(u); err != nil {
		a.logger.Debug("invalid redirect url", zap.String("url", u), zap.Error(err))
		return fmt.Errorf("invalid redirect url: %w", err)
	}
	a.redirectURL = u
	return nil
}

// SetNextChapterURL exposes nextChapterUrl to scripts
func (a *Analyzer) SetNextChapterURL(u string) { a.nextChapterURL = u }

// SetSource attaches the rule set whose variables join the scope chain
func (a *Analyzer) SetSource(s *source.Source) { a.source = s }

// SetBook attaches book metadata
func (a *Analyzer) SetBook(b *source.Book) { a.book = b }

// SetChapter attaches chapter metadata
func (a *Analyzer) SetChapter(c *source.Chapter) { a.chapter = c }

// resolveBase is the base for URL results
func (a *Analyzer) resolveBase() string {
	if a.redirectURL != "" {
		return a.redirectURL
	}
	return a.baseURL
}

// scopes lists the attached variable stores innermost first
func (a *Analyzer) scopes() scope.Chain {
	var stores []scope.Store
	if a.chapter != nil {
		stores = append(stores, a.chapter.Vars())
	}
	if a.book != nil {
		stores = append(stores, a.book.Vars())
	}
	if a.source != nil {
		stores = append(stores, a.source.Vars())
	}
	return scope.NewChain(append(stores, a.global)...)
}

// Put stores a variable on the innermost attached scope
func (a *Analyzer) Put(key, value string) string {
	a.scopes().Put(key, value)
	return value
}

// Get reads a variable. bookName and title come from the metadata.
func (a *Analyzer) Get(key string) string {
	switch key {
	case "bookName":
		if a.book != nil {
			return a.book.Name
		}
		return ""
	case "title":
		if a.chapter != nil {
			return a.chapter.Title
		}
		return ""
	}
	return a.scopes().Get(key)
}

type nopMetrics struct{}

func (nopMetrics) RecordExtraction(string, string, string, time.Duration) {}
func (nopMetrics) RecordScript(string)                                    {}

// Package engine wires the shared, concurrency-safe parts of the extractor
// (rule cache, global variables, regex cache, script pool, fetch client)
// and hands out per-document analyzers built on them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/GriffinCanCode/rulekit/internal/domain/analyzer"
	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/GriffinCanCode/rulekit/internal/domain/scope"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/config"
	"github.com/GriffinCanCode/rulekit/internal/providers/fetch"
	"github.com/GriffinCanCode/rulekit/internal/providers/regex"
	"github.com/GriffinCanCode/rulekit/internal/providers/script"
	"github.com/GriffinCanCode/rulekit/internal/shared/document"
	"github.com/GriffinCanCode/rulekit/internal/shared/urlutil"
	"go.uber.org/zap"
)

// Metrics is the union of what analyzers and the fetch client report
type Metrics interface {
	analyzer.Metrics
	fetch.Recorder
}

// Engine holds the shared state behind every analyzer
type Engine struct {
	Compiler *rule.Compiler
	Global   *scope.Global
	Regex    *regex.Chain
	Scripts  *script.Pool
	Fetcher  *fetch.Client

	metrics Metrics
	logger  *zap.Logger
}

// New builds an engine from configuration. metrics may be nil.
func New(cfg *config.Config, logger *zap.Logger, metrics Metrics) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	compiler, err := rule.NewCompiler(cfg.Engine.RuleCacheSize)
	if err != nil {
		return nil, err
	}
	global, err := scope.NewGlobal(cfg.Engine.GlobalVarsSize)
	if err != nil {
		return nil, err
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.Timeout = cfg.Fetch.Timeout
	fetchCfg.Retries = cfg.Fetch.Retries
	fetchCfg.RetryWait = cfg.Fetch.RetryWait
	fetchCfg.UserAgent = cfg.Fetch.UserAgent
	fetchCfg.RateLimit = cfg.Fetch.RateLimit
	fetchCfg.BreakerThreshold = cfg.Fetch.BreakerThreshold
	var recorder fetch.Recorder
	if metrics != nil {
		recorder = metrics
	}
	fetcher, err := fetch.NewClient(fetchCfg, logger.Named("fetch"), recorder)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Compiler: compiler,
		Global:   global,
		Regex:    regex.New(cfg.Engine.RegexTimeout, logger.Named("regex")),
		Fetcher:  fetcher,
		metrics:  metrics,
		logger:   logger,
	}

	if cfg.Script.Enabled {
		pool, err := script.NewPool(script.Config{
			MaxMemoryMB:   int64(cfg.Script.MaxMemoryMB),
			Timeout:       cfg.Script.Timeout,
			EnableConsole: cfg.Script.Console,
			PoolSize:      cfg.Script.PoolSize,
		}, logger.Named("script"))
		if err != nil {
			return nil, fmt.Errorf("failed to create script pool: %w", err)
		}
		e.Scripts = pool
	}

	return e, nil
}

// NewAnalyzer returns an analyzer sharing the engine's caches
func (e *Engine) NewAnalyzer() (*analyzer.Analyzer, error) {
	opts := []analyzer.Option{
		analyzer.WithLogger(e.logger.Named("analyzer")),
		analyzer.WithCompiler(e.Compiler),
		analyzer.WithGlobal(e.Global),
		analyzer.WithRegex(e.Regex),
		analyzer.WithFetcher(e.Fetcher),
	}
	if e.Scripts != nil {
		opts = append(opts, analyzer.WithScriptEngine(e.Scripts))
	}
	if e.metrics != nil {
		opts = append(opts, analyzer.WithMetrics(e.metrics))
	}
	return analyzer.New(opts...)
}

// Load reads a document from an http(s) URL or a local path. It returns
// the text and the base URL relative links resolve against.
func (e *Engine) Load(ctx context.Context, target string) (string, string, error) {
	if urlutil.IsAbsolute(target) {
		resp, err := e.Fetcher.Get(ctx, target, "")
		if err != nil {
			return "", "", err
		}
		if resp.Status >= 400 {
			return "", "", fmt.Errorf("fetch %s: status %d", target, resp.Status)
		}
		return resp.Body, resp.URL, nil
	}

	text, err := document.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("document %s not found: %w", target, err)
	}
	return text, "", err
}

// Close releases the script pool
func (e *Engine) Close() error {
	if e.Scripts != nil {
		return e.Scripts.Close()
	}
	return nil
}

// Stats reports cache sizes and pool state for health endpoints
func (e *Engine) Stats() map[string]any {
	stats := map[string]any{
		"compiled_rules": e.Compiler.Len(),
		"global_vars":    e.Global.Len(),
		"scripts":        e.Scripts != nil,
	}
	if e.Scripts != nil {
		stats["script_pool"] = e.Scripts.Stats()
	}
	return stats
}

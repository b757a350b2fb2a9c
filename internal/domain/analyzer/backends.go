package analyzer

import (
	"errors"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/GriffinCanCode/rulekit/internal/providers/jsonpath"
	"github.com/GriffinCanCode/rulekit/internal/providers/selector"
	"github.com/GriffinCanCode/rulekit/internal/providers/xpath"
	"go.uber.org/zap"
)

// Adapters over the analyzer's own content are built once per SetContent;
// any other input gets a fresh adapter.

func (a *Analyzer) treeFor(v any, own bool) (*selector.Selector, error) {
	if own && a.tree != nil {
		return a.tree, nil
	}
	s, err := selector.New(markup(v), a.logger)
	if err != nil {
		return nil, err
	}
	if own {
		a.tree = s
	}
	return s, nil
}

func (a *Analyzer) pathFor(v any, own bool) (*xpath.Evaluator, error) {
	if own && a.path != nil {
		return a.path, nil
	}
	e, err := xpath.New(markup(v), a.logger)
	if err != nil {
		return nil, err
	}
	if own {
		a.path = e
	}
	return e, nil
}

func (a *Analyzer) jsonFor(v any, own bool) (*jsonpath.Evaluator, error) {
	if own && a.json != nil {
		return a.json, nil
	}
	e, err := jsonpath.New(jsonValue(v), a.logger)
	if err != nil {
		return nil, err
	}
	if own {
		a.json = e
	}
	return e, nil
}

// stageError separates rule-syntax errors, which propagate, from backend
// failures, which are logged and yield an empty stage
func (a *Analyzer) stageError(sub rule.SubRule, err error) error {
	var syntaxErr *rule.SyntaxError
	if errors.As(err, &syntaxErr) {
		return err
	}
	a.logger.Debug("rule stage failed",
		zap.String("rule", sub.Body),
		zap.String("mode", sub.Mode.String()),
		zap.Error(err))
	return nil
}

package regex

import (
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single match so hostile patterns cannot stall a
// rule evaluation
const DefaultTimeout = 2 * time.Second

// Match is the capture vector of one match. Index 0 is the whole match;
// groups that did not participate are "".
type Match []string

// Chain runs regex-chain rules and replace directives with cached patterns
type Chain struct {
	regexCache sync.Map
	timeout    time.Duration
	logger     *zap.Logger
}

// New creates a chain evaluator. A zero timeout selects DefaultTimeout.
func New(timeout time.Duration, logger *zap.Logger) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{timeout: timeout, logger: logger}
}

// Stages splits a regex-chain body on && and drops blank stages
func Stages(body string) []string {
	var out []string
	for _, s := range strings.Split(body, "&&") {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Element returns the capture vector of the first match of the last stage.
// Earlier stages narrow the input to the concatenation of all their
// matches. A nil result means no stage matched.
func (c *Chain) Element(input string, stages []string) Match {
	input, last, ok := c.narrow(input, stages)
	if !ok {
		return nil
	}
	m, err := last.FindStringMatch(input)
	if err != nil {
		c.logger.Debug("regex match failed", zap.String("pattern", last.String()), zap.Error(err))
		return nil
	}
	if m == nil {
		return nil
	}
	return vector(m)
}

// Elements returns the capture vector of every match of the last stage
func (c *Chain) Elements(input string, stages []string) []Match {
	input, last, ok := c.narrow(input, stages)
	if !ok {
		return nil
	}
	var out []Match
	m, err := last.FindStringMatch(input)
	for m != nil && err == nil {
		out = append(out, vector(m))
		m, err = last.FindNextMatch(m)
	}
	if err != nil {
		c.logger.Debug("regex match failed", zap.String("pattern", last.String()), zap.Error(err))
	}
	return out
}

// narrow applies every stage but the last and returns the remaining input
// with the compiled last stage
func (c *Chain) narrow(input string, stages []string) (string, *regexp2.Regexp, bool) {
	if len(stages) == 0 {
		return "", nil, false
	}
	for _, stage := range stages[:len(stages)-1] {
		re, err := c.compile(stage)
		if err != nil {
			return "", nil, false
		}
		var b strings.Builder
		m, err := re.FindStringMatch(input)
		for m != nil && err == nil {
			b.WriteString(m.String())
			m, err = re.FindNextMatch(m)
		}
		if err != nil {
			c.logger.Debug("regex match failed", zap.String("pattern", stage), zap.Error(err))
		}
		if b.Len() == 0 {
			return "", nil, false
		}
		input = b.String()
	}
	last, err := c.compile(stages[len(stages)-1])
	if err != nil {
		return "", nil, false
	}
	return input, last, true
}

// Replace applies a replace directive. Replacement text may reference
// groups as $1 or ${name}. An invalid pattern is replaced literally in
// all-occurrences mode and yields the replacement alone in first mode.
func (c *Chain) Replace(input string, r rule.Replace) string {
	if !r.Active() {
		return input
	}
	re, err := c.compile(r.Pattern)
	if err != nil {
		if r.First {
			return r.Replacement
		}
		return strings.ReplaceAll(input, r.Pattern, r.Replacement)
	}
	count := -1
	if r.First {
		count = 1
	}
	out, err := re.Replace(input, r.Replacement, -1, count)
	if err != nil {
		c.logger.Debug("regex replace failed", zap.String("pattern", r.Pattern), zap.Error(err))
		return input
	}
	return out
}

// compile returns a cached pattern
func (c *Chain) compile(pattern string) (*regexp2.Regexp, error) {
	if cached, ok := c.regexCache.Load(pattern); ok {
		return cached.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		c.logger.Debug("invalid regex", zap.String("pattern", pattern), zap.Error(err))
		return nil, err
	}
	re.MatchTimeout = c.timeout
	c.regexCache.Store(pattern, re)
	return re, nil
}

func vector(m *regexp2.Match) Match {
	groups := m.Groups()
	out := make(Match, len(groups))
	for i, g := range groups {
		out[i] = g.String()
	}
	return out
}

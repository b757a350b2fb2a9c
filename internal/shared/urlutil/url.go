package urlutil

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var droppedSchemes = []string{"javascript:", "mailto:", "tel:"}

// Resolver turns relative links into absolute URLs
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver that logs resolution failures
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve returns candidate made absolute against base. Absolute http(s)
// and data: URLs pass through; script, mail and phone links become "".
// Unparseable input degrades to the trimmed candidate.
func (r *Resolver) Resolve(base, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	lower := strings.ToLower(candidate)
	for _, s := range droppedSchemes {
		if strings.HasPrefix(lower, s) {
			return ""
		}
	}
	if base == "" || IsAbsolute(candidate) || strings.HasPrefix(lower, "data:") {
		return candidate
	}

	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		r.logger.Debug("invalid base url", zap.String("base", base), zap.Error(err))
		return candidate
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		r.logger.Debug("invalid relative url",
			zap.String("base", base),
			zap.String("url", candidate),
			zap.Error(err))
		return candidate
	}
	return b.ResolveReference(ref).String()
}

// ResolveAbsolute resolves without logging
func ResolveAbsolute(base, candidate string) string {
	return NewResolver(nil).Resolve(base, candidate)
}

// IsAbsolute reports whether s starts with an http or https scheme
func IsAbsolute(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// BaseURL returns scheme://host of s, or "" when s is not absolute
func BaseURL(s string) string {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Host returns the host of s without port
func Host(s string) string {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

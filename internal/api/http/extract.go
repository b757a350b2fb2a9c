package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/rulekit/internal/domain/analyzer"
	"github.com/GriffinCanCode/rulekit/internal/domain/source"
	"github.com/GriffinCanCode/rulekit/internal/shared/urlutil"
	"github.com/gin-gonic/gin"
)

// ExtractRequest evaluates one rule against a document
type ExtractRequest struct {
	Content   string            `json:"content"`
	URL       string            `json:"url"`
	BaseURL   string            `json:"baseUrl"`
	Rule      string            `json:"rule" binding:"required"`
	Op        string            `json:"op"`
	AsURL     bool              `json:"asUrl"`
	Unescaped bool              `json:"unescaped"`
	Sanitize  bool              `json:"sanitize"`
	Variables map[string]string `json:"variables"`
}

// SourceRequest applies a rule set to a document. Source is decoded in
// Format (json by default) when given as a string.
type SourceRequest struct {
	Source  *source.Source `json:"source"`
	Raw     string         `json:"raw"`
	Format  string         `json:"format"`
	Content string         `json:"content"`
	URL     string         `json:"url"`
	BaseURL string         `json:"baseUrl"`
}

var errNoDocument = errors.New("either content or url is required")

// Extract handles POST /v1/extract
func (h *Handlers) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Op == "" {
		req.Op = analyzer.OpString
	}

	ctx := c.Request.Context()
	a, status, err := h.analyzer(ctx, req.Content, req.URL, req.BaseURL)
	if err != nil {
		h.fail(c, status, err)
		return
	}
	if len(req.Variables) > 0 {
		a.SetSource(&source.Source{Name: "request", Variables: req.Variables})
	}

	var opts []analyzer.EvalOption
	if req.AsURL {
		opts = append(opts, analyzer.AsURL())
	}
	if req.Unescaped || req.Sanitize {
		opts = append(opts, analyzer.Unescaped())
	}

	var result any
	switch req.Op {
	case analyzer.OpString:
		var s string
		s, err = a.GetString(ctx, req.Rule, opts...)
		if req.Sanitize {
			s = h.sanitizer.Sanitize(s)
		}
		result = s
	case analyzer.OpList:
		var list []string
		list, err = a.GetStringList(ctx, req.Rule, opts...)
		if req.Sanitize {
			for i := range list {
				list[i] = h.sanitizer.Sanitize(list[i])
			}
		}
		if list == nil {
			list = []string{}
		}
		result = list
	case analyzer.OpElement:
		var v any
		v, err = a.GetElement(ctx, req.Rule)
		result = analyzer.Export(v)
	case analyzer.OpElements:
		var v []any
		v, err = a.GetElements(ctx, req.Rule)
		if v == nil {
			v = []any{}
		}
		result = analyzer.Export(v)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown op %q", req.Op)})
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"op":     req.Op,
		"result": result,
	})
}

// ExtractSource handles POST /v1/sources/extract
func (h *Handlers) ExtractSource(c *gin.Context) {
	var req SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src := req.Source
	if src == nil {
		if req.Raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source or raw is required"})
			return
		}
		format := req.Format
		if format == "" {
			format = source.FormatJSON
		}
		var err error
		if src, err = source.Decode([]byte(req.Raw), format); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	target := req.URL
	if target == "" && req.Content == "" {
		target = src.URL
	}
	ctx := c.Request.Context()
	a, status, err := h.analyzer(ctx, req.Content, target, req.BaseURL)
	if err != nil {
		h.fail(c, status, err)
		return
	}

	records, err := a.Extract(ctx, src)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []source.Record{}
	}
	c.JSON(http.StatusOK, gin.H{
		"source":  src.Key(),
		"count":   len(records),
		"records": records,
	})
}

// analyzer prepares an analyzer over inline content or a fetched URL
func (h *Handlers) analyzer(ctx context.Context, content, target, baseURL string) (*analyzer.Analyzer, int, error) {
	if content == "" {
		if target == "" {
			return nil, http.StatusBadRequest, errNoDocument
		}
		if !urlutil.IsAbsolute(target) {
			return nil, http.StatusBadRequest, fmt.Errorf("url %q must be absolute http(s)", target)
		}
		text, base, err := h.engine.Load(ctx, target)
		if err != nil {
			return nil, http.StatusBadGateway, err
		}
		content = text
		if baseURL == "" {
			baseURL = base
		}
	}
	if baseURL == "" {
		baseURL = target
	}

	a, err := h.engine.NewAnalyzer()
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if err := a.SetContent(content, baseURL); err != nil {
		return nil, http.StatusBadRequest, err
	}
	return a, http.StatusOK, nil
}

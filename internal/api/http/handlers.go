package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/rulekit/internal/domain/engine"
	"github.com/GriffinCanCode/rulekit/internal/domain/rule"
	"github.com/GriffinCanCode/rulekit/internal/domain/source"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	engine    *engine.Engine
	metrics   *monitoring.Metrics
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(e *engine.Engine, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		engine:    e,
		metrics:   metrics,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}
}

// Register mounts the routes on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/v1/stats", h.Stats)

	v1 := router.Group("/v1")
	v1.POST("/extract", h.Extract)
	v1.POST("/sources/extract", h.ExtractSource)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "rulekit",
		"version": version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"engine": h.engine.Stats(),
	})
}

// Stats returns the JSON metrics snapshot
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	if h.engine != nil {
		h.metrics.SetCompiledRules(h.engine.Compiler.Len())
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot":           h.metrics.Snapshot(),
		"average_latency_ms": h.metrics.AverageLatency().Milliseconds(),
		"uptime_seconds":     h.metrics.Uptime().Seconds(),
	})
}

// fail writes an error response, mapping rule and source errors to 400
func (h *Handlers) fail(c *gin.Context, status int, err error) {
	var syntaxErr *rule.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  err.Error(),
			"rule":   syntaxErr.Rule,
			"prefix": syntaxErr.Prefix,
		})
		return
	case errors.Is(err, source.ErrInvalidSource):
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

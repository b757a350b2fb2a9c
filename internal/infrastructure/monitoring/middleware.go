package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection. Paths are
// labelled by route template so URL parameters do not explode cardinality.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(method, path, status, time.Since(start), reqSize, respSize)
	}
}

// Timer measures an extraction
type Timer struct {
	start   time.Time
	metrics *Metrics
	op      string
	mode    string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, op, mode string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		op:      op,
		mode:    mode,
	}
}

// Stop records the elapsed time with status
func (t *Timer) Stop(status string) {
	t.metrics.RecordExtraction(t.op, t.mode, status, time.Since(t.start))
}

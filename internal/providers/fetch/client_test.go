package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/GriffinCanCode/rulekit/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu     sync.Mutex
	status []string
}

func (r *countingRecorder) RecordFetch(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, status)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retries = 0
	cfg.BreakerThreshold = 2
	return cfg
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Agent", r.UserAgent())
		_, _ = io.WriteString(w, "<p>hello</p>")
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, r.Method+" "+r.Header.Get("Content-Type")+" "+r.Header.Get("X-T")+" "+string(body))
	})
	mux.HandleFunc("/gbk", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte{'<', 'p', '>', 0xD6, 0xD0, 0xCE, 0xC4})
	})
	mux.HandleFunc("/trace", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get(tracing.TraceHeader))
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t)
	rec := &countingRecorder{}
	c, err := NewClient(testConfig(), nil, rec)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("get relative", func(t *testing.T) {
		resp, err := c.Get(ctx, "/page", srv.URL+"/index")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "<p>hello</p>", resp.Body)
		assert.Equal(t, "rulekit/1.0", resp.Headers["X-Agent"])
		assert.Equal(t, srv.URL+"/page", resp.URL)
	})

	t.Run("post json body", func(t *testing.T) {
		resp, err := c.Get(ctx, srv.URL+`/echo,{"method":"post","body":{"a":1},"headers":{"X-T":"t"}}`, "")
		require.NoError(t, err)
		assert.Equal(t, `POST application/json t {"a":1}`, resp.Body)
	})

	t.Run("post form body", func(t *testing.T) {
		resp, err := c.Get(ctx, srv.URL+`/echo, {"method":"POST","body":"k=v"}`, "")
		require.NoError(t, err)
		assert.Equal(t, "POST application/x-www-form-urlencoded  k=v", resp.Body)
	})

	t.Run("declared charset", func(t *testing.T) {
		resp, err := c.Get(ctx, srv.URL+`/gbk,{"charset":"gbk"}`, "")
		require.NoError(t, err)
		assert.Equal(t, "<p>中文", resp.Body)
	})

	rec.mu.Lock()
	assert.Equal(t, []string{"200", "200", "200", "200"}, rec.status)
	rec.mu.Unlock()
}

func TestFetchBreaker(t *testing.T) {
	srv := newServer(t)
	c, err := NewClient(testConfig(), nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// server errors are returned to the caller but trip the breaker
	resp, err := c.Get(ctx, srv.URL+"/fail", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.Status)

	_, _ = c.Get(ctx, srv.URL+"/fail", "")
	assert.Equal(t, resilience.StateOpen, c.BreakerState(srv.URL))
	assert.Equal(t, resilience.StateClosed, c.BreakerState("https://other.example/"))

	_, err = c.Get(ctx, srv.URL+"/page", "")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestFetchForwardsTrace(t *testing.T) {
	srv := newServer(t)
	c, err := NewClient(testConfig(), nil, nil)
	require.NoError(t, err)

	ctx := tracing.WithIDs(context.Background(), "trace_abc", "span_def")
	resp, err := c.Get(ctx, srv.URL+"/trace", "")
	require.NoError(t, err)
	assert.Equal(t, "trace_abc", resp.Body)
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(`/search?q=x , {"method":"post","headers":{"Referer":"r"},"retry":2}`, "https://s.example/a/")
	require.NoError(t, err)
	assert.Equal(t, "https://s.example/search?q=x", req.URL)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "r", req.Headers["Referer"])
	assert.Equal(t, 2, req.Retry)

	req, err = ParseRequest("https://s.example/x", "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)

	_, err = ParseRequest(`/x,{bad`, "https://s.example")
	assert.Error(t, err)

	_, err = ParseRequest("javascript:void(0)", "https://s.example")
	assert.Error(t, err)
}

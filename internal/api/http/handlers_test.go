package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GriffinCanCode/rulekit/internal/domain/engine"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/config"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<ul>
  <li class="item"><a href="/a">First &amp; best</a><span>1</span></li>
  <li class="item"><a href="/b">Second</a><span>2</span></li>
</ul>
<div id="desc"><b>bold</b><script>alert(1)</script></div>
</body></html>`

func setupRouter(t *testing.T) (*gin.Engine, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Script.Enabled = false
	cfg.Fetch.Retries = 0
	cfg.Fetch.RateLimit = 0

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	e, err := engine.New(cfg, nil, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	router := gin.New()
	NewHandlers(e, metrics, nil).Register(router)
	return router, metrics
}

func post(t *testing.T, router *gin.Engine, path string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestExtract(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		req  map[string]any
		want any
	}{
		{
			name: "string is escaped by default",
			req:  map[string]any{"content": page, "rule": "class.item.0@a@text"},
			want: "First &amp; best",
		},
		{
			name: "unescaped string",
			req:  map[string]any{"content": page, "rule": "class.item.0@a@text", "unescaped": true},
			want: "First & best",
		},
		{
			name: "url resolves against base",
			req:  map[string]any{"content": page, "baseUrl": "https://example.com/list", "rule": "class.item.1@a@href", "asUrl": true},
			want: "https://example.com/b",
		},
		{
			name: "list",
			req:  map[string]any{"content": page, "rule": "class.item@span@text", "op": "list"},
			want: []any{"1", "2"},
		},
		{
			name: "empty list is an empty array",
			req:  map[string]any{"content": page, "rule": "class.missing@text", "op": "list"},
			want: []any{},
		},
		{
			name: "json path",
			req:  map[string]any{"content": `{"book":{"name":"Dune"}}`, "rule": "$.book.name"},
			want: "Dune",
		},
		{
			name: "variables are visible to templates",
			req:  map[string]any{"content": page, "rule": "@get:{k}", "variables": map[string]string{"k": "v"}},
			want: "v",
		},
		{
			name: "elements render as markup",
			req:  map[string]any{"content": page, "rule": "class.item@span", "op": "elements"},
			want: []any{"<span>1</span>", "<span>2</span>"},
		},
		{
			name: "regex element exports groups",
			req:  map[string]any{"content": "id=42;", "rule": ":id=(\\d+)", "op": "element"},
			want: []any{"id=42", "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := post(t, router, "/v1/extract", tt.req)
			require.Equal(t, http.StatusOK, code, body)
			assert.Equal(t, tt.want, body["result"])
		})
	}
}

func TestExtractSanitize(t *testing.T) {
	router, _ := setupRouter(t)
	dirty := `<div id="desc"><b>bold</b><img src="x" onerror="alert(1)"></div>`

	code, body := post(t, router, "/v1/extract", map[string]any{
		"content":  dirty,
		"rule":     "id.desc@all",
		"sanitize": true,
	})
	require.Equal(t, http.StatusOK, code, body)
	got, _ := body["result"].(string)
	assert.Contains(t, got, "<b>bold</b>")
	assert.NotContains(t, got, "onerror")
}

func TestExtractErrors(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		req  map[string]any
		want int
	}{
		{"missing rule", map[string]any{"content": page}, http.StatusBadRequest},
		{"missing document", map[string]any{"rule": "tag.p@text"}, http.StatusBadRequest},
		{"unknown op", map[string]any{"content": page, "rule": "tag.p@text", "op": "tree"}, http.StatusBadRequest},
		{"relative url is rejected", map[string]any{"url": "/etc/passwd", "rule": "tag.p@text"}, http.StatusBadRequest},
		{"unbalanced rule", map[string]any{"content": page, "rule": "li[0&&b"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := post(t, router, "/v1/extract", tt.req)
			assert.Equal(t, tt.want, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestExtractFromURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	}))
	defer upstream.Close()

	router, _ := setupRouter(t)
	code, body := post(t, router, "/v1/extract", map[string]any{
		"url":   upstream.URL + "/list",
		"rule":  "class.item.0@a@href",
		"asUrl": true,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, upstream.URL+"/a", body["result"])
}

func TestExtractSource(t *testing.T) {
	router, _ := setupRouter(t)

	src := map[string]any{
		"name":      "demo",
		"list":      "class.item",
		"fields":    map[string]string{"title": "tag.a@text", "url": "tag.a@href"},
		"urlFields": []string{"url"},
	}

	t.Run("inline source", func(t *testing.T) {
		code, body := post(t, router, "/v1/sources/extract", map[string]any{
			"source":  src,
			"content": page,
			"baseUrl": "https://example.com/",
		})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, float64(2), body["count"])
		assert.Equal(t, []any{
			map[string]any{"title": "First & best", "url": "https://example.com/a"},
			map[string]any{"title": "Second", "url": "https://example.com/b"},
		}, body["records"])
	})

	t.Run("raw yaml source", func(t *testing.T) {
		raw := "name: demo\nfields:\n  heading: tag.b@text\n"
		code, body := post(t, router, "/v1/sources/extract", map[string]any{
			"raw":     raw,
			"format":  "yaml",
			"content": page,
		})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, []any{map[string]any{"heading": "bold"}}, body["records"])
	})

	t.Run("invalid source", func(t *testing.T) {
		code, body := post(t, router, "/v1/sources/extract", map[string]any{
			"source":  map[string]any{"name": "empty"},
			"content": page,
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, body["error"], "invalid source")
	})

	t.Run("no source", func(t *testing.T) {
		code, _ := post(t, router, "/v1/sources/extract", map[string]any{"content": page})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestHealthAndStats(t *testing.T) {
	router, _ := setupRouter(t)
	post(t, router, "/v1/extract", map[string]any{"content": page, "rule": "tag.b@text"})

	for _, path := range []string{"/", "/health", "/v1/stats"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "snapshot")
	assert.Contains(t, body, "uptime_seconds")
}

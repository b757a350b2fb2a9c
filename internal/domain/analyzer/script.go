package analyzer

import (
	"context"

	"go.uber.org/zap"
)

const maxLoggedScript = 200

// evalScript runs a script stage. Failures are logged and yield nil so the
// remaining stages see an empty value.
func (a *Analyzer) evalScript(ctx context.Context, code string, result any, c *call) any {
	if a.scripts == nil {
		a.logger.Warn("script stage skipped, no script engine configured",
			zap.String("script", truncate(code)))
		a.metrics.RecordScript("disabled")
		return nil
	}

	v, err := a.scripts.Eval(ctx, code, a.bindings(ctx, result, c))
	if err != nil {
		a.logger.Warn("script evaluation failed",
			zap.String("script", truncate(code)),
			zap.String("base_url", a.baseURL),
			zap.Error(err))
		a.metrics.RecordScript("error")
		return nil
	}
	a.metrics.RecordScript("ok")
	return v
}

func (a *Analyzer) bindings(ctx context.Context, result any, c *call) map[string]any {
	b := map[string]any{
		"java":           &host{a: a, ctx: ctx, c: c},
		"result":         scriptValue(result),
		"src":            scriptValue(a.content),
		"content":        scriptValue(c.content),
		"baseUrl":        a.baseURL,
		"nextChapterUrl": a.nextChapterURL,
		"title":          "",
		"source":         nil,
		"book":           nil,
		"chapter":        nil,
	}
	if a.source != nil {
		b["source"] = a.source
	}
	if a.book != nil {
		b["book"] = a.book
	}
	if a.chapter != nil {
		b["chapter"] = a.chapter
		b["title"] = a.chapter.Title
	}
	return b
}

// host is the java object scripts call back into
type host struct {
	a   *Analyzer
	ctx context.Context
	c   *call
}

// Ajax fetches a url spec relative to the base URL and returns the body
func (h *host) Ajax(spec string) string {
	if h.a.fetcher == nil {
		h.a.logger.Warn("ajax skipped, no fetcher configured", zap.String("url", spec))
		return ""
	}
	resp, err := h.a.fetcher.Get(h.ctx, spec, h.a.baseURL)
	if err != nil {
		h.a.logger.Warn("ajax failed", zap.String("url", spec), zap.Error(err))
		return ""
	}
	return resp.Body
}

func (h *host) Get(key string) string { return h.a.Get(key) }

func (h *host) Put(key, value string) string { return h.a.Put(key, value) }

// GetString evaluates a rule against the calling stage's content
func (h *host) GetString(text string) string {
	s, err := h.a.getStringText(h.ctx, text, h.c.child())
	if err != nil {
		h.a.logger.Debug("script getString failed", zap.String("rule", text), zap.Error(err))
	}
	return s
}

// GetStringList evaluates a list rule against the calling stage's content
func (h *host) GetStringList(text string) []string {
	c := h.c.child()
	p, err := h.a.compiler.Compile(text, c.isJSON, false)
	if err != nil {
		h.a.logger.Debug("script getStringList failed", zap.String("rule", text), zap.Error(err))
		return nil
	}
	list, err := h.a.getStringList(h.ctx, p, c)
	if err != nil {
		h.a.logger.Debug("script getStringList failed", zap.String("rule", text), zap.Error(err))
	}
	return list
}

func (h *host) Log(msg string) string {
	h.a.logger.Info("script log", zap.String("message", msg))
	return msg
}

func truncate(s string) string {
	if len(s) <= maxLoggedScript {
		return s
	}
	return s[:maxLoggedScript] + "..."
}

package fetch

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/rulekit/internal/shared/urlutil"
	"github.com/bytedance/sonic"
)

// optionSep finds the comma that introduces the JSON option object
var optionSep = regexp.MustCompile(`\s*,\s*\{`)

// Request describes one fetch
type Request struct {
	URL     string
	Method  string
	Body    string
	Headers map[string]string
	Charset string
	Retry   int
}

type urlOption struct {
	Method  string         `json:"method"`
	Headers map[string]any `json:"headers"`
	Body    any            `json:"body"`
	Charset string         `json:"charset"`
	Retry   int            `json:"retry"`
}

// ParseRequest reads a request spec of the form url[,{options}] and
// resolves the url against base. Options carry method, headers, body,
// charset and retry.
func ParseRequest(spec, base string) (Request, error) {
	spec = strings.TrimSpace(spec)
	req := Request{Method: http.MethodGet, Headers: map[string]string{}}

	raw, option := spec, ""
	if loc := optionSep.FindStringIndex(spec); loc != nil {
		raw, option = spec[:loc[0]], spec[loc[1]-1:]
	}
	req.URL = urlutil.ResolveAbsolute(base, raw)
	if req.URL == "" {
		return Request{}, fmt.Errorf("fetch: empty url in %q", spec)
	}
	if option == "" {
		return req, nil
	}

	var opt urlOption
	if err := sonic.UnmarshalString(option, &opt); err != nil {
		return Request{}, fmt.Errorf("fetch: invalid url option: %w", err)
	}
	if opt.Method != "" {
		req.Method = strings.ToUpper(opt.Method)
	}
	for k, v := range opt.Headers {
		req.Headers[k] = fmt.Sprint(v)
	}
	switch b := opt.Body.(type) {
	case nil:
	case string:
		req.Body = b
	default:
		s, err := sonic.MarshalString(b)
		if err != nil {
			return Request{}, fmt.Errorf("fetch: invalid body: %w", err)
		}
		req.Body = s
	}
	req.Charset = opt.Charset
	req.Retry = opt.Retry
	return req, nil
}

// contentType picks the body content type when the caller gave none
func (r Request) contentType() string {
	body := strings.TrimSpace(r.Body)
	switch {
	case strings.HasPrefix(body, "{") || strings.HasPrefix(body, "["):
		return "application/json"
	case strings.HasPrefix(body, "<"):
		return "application/xml"
	default:
		return "application/x-www-form-urlencoded"
	}
}

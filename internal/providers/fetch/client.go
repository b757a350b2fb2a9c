package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/GriffinCanCode/rulekit/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/rulekit/internal/shared/document"
	"github.com/GriffinCanCode/rulekit/internal/shared/urlutil"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var errServer = errors.New("server error")

// Config defines client behavior
type Config struct {
	Timeout          time.Duration
	Retries          int
	RetryWait        time.Duration
	RetryMaxWait     time.Duration
	UserAgent        string
	RateLimit        float64 // requests per second, 0 = unlimited
	BreakerThreshold uint32  // consecutive failures that open the breaker
}

// DefaultConfig returns the client defaults
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		Retries:          3,
		RetryWait:        1 * time.Second,
		RetryMaxWait:     30 * time.Second,
		UserAgent:        "rulekit/1.0",
		BreakerThreshold: 10,
	}
}

// Recorder receives one call per completed fetch
type Recorder interface {
	RecordFetch(status string)
}

// Response is a decoded fetch result
type Response struct {
	Status  int
	Body    string
	Headers map[string]string
	URL     string
}

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	recorder Recorder
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewClient creates a client. recorder may be nil.
func NewClient(cfg Config, logger *zap.Logger, recorder Recorder) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWait
	retryClient.RetryWaitMax = cfg.RetryMaxWait
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTransport(retryClient.HTTPClient.Transport)

	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 10
	}
	breakers, err := resilience.NewGroup(resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= threshold ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		OnStateChange: func(host string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("host", host),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}, resilience.DefaultGroupSize)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: breakers,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// Get parses a request spec relative to base and fetches it
func (c *Client) Get(ctx context.Context, spec, base string) (*Response, error) {
	req, err := ParseRequest(spec, base)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, req)
}

// Fetch performs req. Non-2xx responses are returned without error; server
// errors still count against the breaker.
func (c *Client) Fetch(ctx context.Context, req Request) (*Response, error) {
	var (
		resp *Response
		err  error
	)
	for attempt := 0; attempt <= req.Retry; attempt++ {
		resp, err = c.do(ctx, req)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	c.record(resp, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	host := urlutil.Host(req.URL)
	if c.breakers.State(host) == resilience.StateOpen {
		return nil, fmt.Errorf("%s unavailable: %w", host, resilience.ErrCircuitOpen)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	headers := make(map[string]string, len(req.Headers)+2)
	tracing.Inject(ctx, headers)
	for k, v := range req.Headers {
		headers[k] = v
	}

	c.mu.RLock()
	r := c.resty.R().SetContext(ctx).SetHeaders(headers)
	c.mu.RUnlock()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if req.Body != "" {
		if _, ok := req.Headers["Content-Type"]; !ok {
			r.SetHeader("Content-Type", req.contentType())
		}
		r.SetBody(req.Body)
	}

	var raw *resty.Response
	err := c.breakers.Get(host).Do(func() error {
		res, err := r.Execute(method, req.URL)
		if err != nil {
			return err
		}
		raw = res
		if res.StatusCode() >= http.StatusInternalServerError {
			return errServer
		}
		return nil
	})
	if raw == nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("%s unavailable: %w", host, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	return c.decode(req, raw)
}

func (c *Client) decode(req Request, raw *resty.Response) (*Response, error) {
	resp := &Response{
		Status:  raw.StatusCode(),
		Headers: make(map[string]string),
		URL:     req.URL,
	}
	if raw.RawResponse != nil && raw.RawResponse.Request != nil {
		resp.URL = raw.RawResponse.Request.URL.String()
	}
	for k, v := range raw.Header() {
		if len(v) > 0 {
			resp.Headers[k] = v[0]
		}
	}

	contentType := raw.Header().Get("Content-Type")
	if req.Charset != "" {
		contentType = "text/plain; charset=" + req.Charset
	}
	body, err := document.Decode(raw.Body(), contentType)
	switch {
	case errors.Is(err, document.ErrEmpty):
	case err != nil:
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	default:
		resp.Body = body
	}
	return resp, nil
}

func (c *Client) record(resp *Response, err error) {
	if c.recorder == nil {
		return
	}
	switch {
	case err != nil:
		c.recorder.RecordFetch("error")
	default:
		c.recorder.RecordFetch(strconv.Itoa(resp.Status))
	}
}

// BreakerState returns the circuit breaker state for a URL's host
func (c *Client) BreakerState(rawURL string) resilience.State {
	return c.breakers.State(urlutil.Host(rawURL))
}

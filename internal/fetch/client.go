package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kx0101/subdiff/internal/logging"
	"github.com/kx0101/subdiff/internal/metrics"
	"github.com/kx0101/subdiff/internal/models"
)

const snippetLimit = 200

var defaultAccepted = []int{http.StatusOK, http.StatusBadRequest}

// Client talks to one conversion service.
type Client struct {
	side       models.Side
	baseURL    string
	token      string
	accepted   map[int]bool
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRateLimit caps the client at perSecond requests. Zero leaves it
// unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithAccepted(statuses ...int) Option {
	return func(c *Client) {
		c.accepted = make(map[int]bool, len(statuses))
		for _, s := range statuses {
			c.accepted[s] = true
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(side models.Side, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s base url: %w", side, err)
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return nil, fmt.Errorf("invalid scheme in %s base url %q", side, baseURL)
	}

	c := &Client{
		side:       side,
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	WithAccepted(defaultAccepted...)(c)

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Get requests path with params. It never returns an error: transport
// failures and unaccepted statuses come back as a Response with Status 0.
func (c *Client) Get(ctx context.Context, path string, params url.Values) models.Response {
	start := time.Now()
	resp := c.get(ctx, path, params)
	resp.LatencyMs = time.Since(start).Milliseconds()

	code := strconv.Itoa(resp.Status)
	if resp.FetchFailed() {
		code = "error"
		logging.L.Debug("fetch failed",
			zap.String("side", string(c.side)),
			zap.String("path", path),
			zap.String("error", resp.Err),
		)
	}
	metrics.FetchCounter.WithLabelValues(string(c.side), code).Inc()

	return resp
}

func (c *Client) get(ctx context.Context, path string, params url.Values) models.Response {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return models.Response{Err: fmt.Sprintf("rate limiter: %v", err)}
		}
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if c.token != "" {
		query.Set("token", c.token)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return models.Response{Err: err.Error()}
	}

	t := prometheus.NewTimer(metrics.FetchDuration.WithLabelValues(string(c.side), path))
	res, err := c.httpClient.Do(req)
	t.ObserveDuration()
	if err != nil {
		return models.Response{Err: err.Error()}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return models.Response{Err: fmt.Sprintf("reading body: %v", err)}
	}

	if !c.accepted[res.StatusCode] {
		return models.Response{Err: fmt.Sprintf("GET %s returned %d: %s", path, res.StatusCode, snippet(body))}
	}

	return models.Response{Body: string(body), Status: res.StatusCode}
}

func snippet(body []byte) string {
	if len(body) > snippetLimit {
		body = body[:snippetLimit]
	}

	return strings.TrimSpace(string(body))
}

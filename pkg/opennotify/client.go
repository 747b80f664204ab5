package opennotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/opennotify/pkg/httpclient"
)

const (
	// DefaultBaseURL is the public open-notify API.
	DefaultBaseURL = "http://api.open-notify.org"

	EndpointAstros    = "astros"
	EndpointIssNow    = "iss-now"
	EndpointPassTimes = "iss-pass"

	maxAltitudeMeters = 10000
	maxPasses         = 100
)

var endpointPaths = map[string]string{
	EndpointAstros:    "/astros.json",
	EndpointIssNow:    "/iss-now.json",
	EndpointPassTimes: "/iss-pass.json",
}

// API is the set of calls exposed by Client; depend on it to substitute fakes.
type API interface {
	Astros(ctx context.Context) (*AstroResponse, error)
	IssNow(ctx context.Context) (*IssNowResponse, error)
	PassTimes(ctx context.Context, lat, lon float64, opts ...PassOption) (*PassTimesResponse, error)
}

var _ API = (*Client)(nil)

// Client talks to the open-notify HTTP API. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      httpclient.Client
	log       Logger
	lenient   bool
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another host, e.g. a mirror or test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := parseBaseURL(raw)
		if err != nil {
			return err
		}
		c.baseURL = u
		return nil
	}
}

// WithHTTPClient injects the transport. Timeout, user agent and round tripper
// options are ignored when a client is supplied.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.http = hc
		return nil
	}
}

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.timeout = d
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = strings.TrimSpace(ua)
		return nil
	}
}

// WithTransport passes a round tripper through to the underlying HTTP client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) error {
		c.transport = rt
		return nil
	}
}

// WithLenientCounts accepts astros payloads whose number disagrees with the
// length of people. By default such payloads fail with ErrCountMismatch.
func WithLenientCounts() Option {
	return func(c *Client) error {
		c.lenient = true
		return nil
	}
}

// WithLogger enables debug logging of requests.
func WithLogger(l Logger) Option {
	return func(c *Client) error {
		c.log = ensureLogger(l)
		return nil
	}
}

// New builds a Client. Without options it targets DefaultBaseURL over a resty
// transport with httpclient.DefaultTimeout.
func New(opts ...Option) (*Client, error) {
	base, err := parseBaseURL(DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{baseURL: base, log: NopLogger{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("configure open-notify client: %w", err)
		}
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClientWithOptions(httpclient.Options{
			Timeout:   c.timeout,
			UserAgent: c.userAgent,
			Transport: c.transport,
		})
	}
	return c, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Astros fetches the people currently in space.
func (c *Client) Astros(ctx context.Context) (*AstroResponse, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	var w wireAstros
	status, body, err := c.fetch(ctx, EndpointAstros, nil, &w)
	if err != nil {
		return nil, err
	}
	out, err := w.toResponse(!c.lenient)
	if err != nil {
		return nil, &ParseError{Endpoint: EndpointAstros, StatusCode: status, Body: body, Err: err}
	}
	if out.Number != len(out.People) {
		c.log.WarnObj("astros count mismatch accepted", "astros_mismatch", map[string]any{
			"number": out.Number,
			"people": len(out.People),
		})
	}
	return out, nil
}

// IssNow fetches the current ISS ground position.
func (c *Client) IssNow(ctx context.Context) (*IssNowResponse, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	var w wireIssNow
	status, body, err := c.fetch(ctx, EndpointIssNow, nil, &w)
	if err != nil {
		return nil, err
	}
	out, err := w.toResponse()
	if err != nil {
		return nil, &ParseError{Endpoint: EndpointIssNow, StatusCode: status, Body: body, Err: err}
	}
	return out, nil
}

// PassTimes predicts ISS passes over lat/lon. Coordinates and options are
// validated before any request is made; invalid input yields a *ValidationError.
func (c *Client) PassTimes(ctx context.Context, lat, lon float64, opts ...PassOption) (*PassTimesResponse, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	q := passQuery{latitude: lat, longitude: lon}
	for _, opt := range opts {
		if opt != nil {
			opt(&q)
		}
	}
	if err := q.validate(); err != nil {
		return nil, err
	}

	var w wirePassTimes
	status, body, err := c.fetch(ctx, EndpointPassTimes, q.values(), &w)
	if err != nil {
		return nil, err
	}
	out, err := w.toResponse()
	if err != nil {
		return nil, &ParseError{Endpoint: EndpointPassTimes, StatusCode: status, Body: body, Err: err}
	}
	return out, nil
}

// fetch performs the GET, checks the envelope and decodes body into dest.
func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values, dest any) (int, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reqURL := c.endpointURL(endpoint, query)
	c.log.DebugObj("open-notify request", "request", map[string]any{
		"endpoint": endpoint,
		"url":      reqURL,
	})

	start := time.Now()
	resp, err := c.http.Get(ctx, reqURL, nil)
	if err != nil {
		c.log.WarnObj("open-notify request failed", "request_error", map[string]any{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return 0, nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	status := resp.StatusCode()
	body := resp.Body()
	c.log.DebugObj("open-notify response", "response", map[string]any{
		"endpoint":    endpoint,
		"status":      status,
		"bytes":       len(body),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return status, body, &ParseError{Endpoint: endpoint, StatusCode: status, Body: body, Err: err}
	}
	if env.Message == nil {
		return status, body, &ParseError{Endpoint: endpoint, StatusCode: status, Body: body, Err: errors.New("missing message")}
	}
	if *env.Message != MessageSuccess {
		return status, body, &APIError{Endpoint: endpoint, StatusCode: status, Message: *env.Message, Reason: env.Reason}
	}
	if status < 200 || status > 299 {
		return status, body, &ParseError{Endpoint: endpoint, StatusCode: status, Body: body, Err: fmt.Errorf("unexpected status %d for success message", status)}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return status, body, &ParseError{Endpoint: endpoint, StatusCode: status, Body: body, Err: err}
	}
	return status, body, nil
}

func (c *Client) endpointURL(endpoint string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + endpointPaths[endpoint]
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// PassOption sets an optional pass-times query parameter. Each option is
// independent; unset ones are omitted from the request.
type PassOption func(*passQuery)

// WithAltitude sets the observer altitude in meters (alt), 0 to 10000.
func WithAltitude(meters float64) PassOption {
	return func(q *passQuery) { q.altitude = &meters }
}

// WithPasses sets how many passes to return (n), 1 to 100. The server defaults to 5.
func WithPasses(n int) PassOption {
	return func(q *passQuery) { q.passes = &n }
}

// WithDateTime predicts passes starting at t instead of now (datetime).
func WithDateTime(t time.Time) PassOption {
	return func(q *passQuery) { q.datetime = &t }
}

type passQuery struct {
	latitude  float64
	longitude float64
	altitude  *float64
	passes    *int
	datetime  *time.Time
}

func (q passQuery) validate() error {
	if checkLatitude(q.latitude) != nil {
		return &ValidationError{Field: "latitude", Value: q.latitude, Reason: "must be within [-90, 90]"}
	}
	if checkLongitude(q.longitude) != nil {
		return &ValidationError{Field: "longitude", Value: q.longitude, Reason: "must be within [-180, 180]"}
	}
	if q.altitude != nil {
		if a := *q.altitude; math.IsNaN(a) || a < 0 || a > maxAltitudeMeters {
			return &ValidationError{Field: "altitude", Value: a, Reason: "must be within [0, 10000] meters"}
		}
	}
	if q.passes != nil {
		if n := *q.passes; n < 1 || n > maxPasses {
			return &ValidationError{Field: "passes", Value: n, Reason: "must be within [1, 100]"}
		}
	}
	if q.datetime != nil {
		if t := *q.datetime; t.IsZero() || t.Unix() < 0 {
			return &ValidationError{Field: "datetime", Value: t, Reason: "must be a time after the Unix epoch"}
		}
	}
	return nil
}

func (q passQuery) values() url.Values {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(q.latitude, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(q.longitude, 'f', -1, 64))
	if q.altitude != nil {
		v.Set("alt", strconv.FormatFloat(*q.altitude, 'f', -1, 64))
	}
	if q.passes != nil {
		v.Set("n", strconv.Itoa(*q.passes))
	}
	if q.datetime != nil {
		v.Set("datetime", strconv.FormatInt(q.datetime.Unix(), 10))
	}
	return v
}

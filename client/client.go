package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/concrnt-loadtest"
)

var tracer = otel.Tracer("client")

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "concrnt-loadtest/1.0"
	apiPrefix        = "/api/v1"
)

// Endpoint names reported to the Observer.
const (
	EndpointCommit  = "commit"
	EndpointRecent  = "timelines_recent"
	EndpointMessage = "message"
)

// Observer receives the latency of every request the client completes.
type Observer interface {
	ObserveRequest(name string, d time.Duration)
}

type Options struct {
	Secure    bool
	Timeout   time.Duration
	UserAgent string
	Observer  Observer
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the target's HTTP API. Non-2xx statuses are returned, not treated as errors.
type Client struct {
	client    *http.Client
	transport http.RoundTripper
	observer  Observer
	userAgent string
	target    string
	secure    bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

func New(target string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	httpClient := http.Client{
		Timeout: opts.Timeout,
	}

	c := &Client{
		client:    &httpClient,
		transport: opts.Transport,
		observer:  opts.Observer,
		userAgent: opts.UserAgent,
		target:    target,
		secure:    opts.Secure,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.transport.RoundTrip(req)
}

// BaseURL is the root of the HTTP API, e.g. http://localhost:8080/api/v1.
func (c *Client) BaseURL() string {
	scheme := "http"
	if c.secure {
		scheme = "https"
	}
	return scheme + "://" + c.target + apiPrefix
}

// RealtimeURL is the websocket endpoint for timeline events.
func (c *Client) RealtimeURL() string {
	scheme := "ws"
	if c.secure {
		scheme = "wss"
	}
	return scheme + "://" + c.target + apiPrefix + "/timelines/realtime"
}

func (c *Client) do(ctx context.Context, name string, req *http.Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "Client."+name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.String()),
	)

	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, errors.Wrapf(err, "failed to perform %s request", name)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, errors.Wrapf(err, "failed to read %s response body", name)
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   time.Since(start),
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	// latency spans the full exchange, body included
	if c.observer != nil {
		c.observer.ObserveRequest(name, result.Duration)
	}
	return result, nil
}

// Commit posts a signed envelope to the commit endpoint.
func (c *Client) Commit(ctx context.Context, commit concrnt.Commit) (*Response, error) {
	body, err := json.Marshal(commit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode commit")
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL()+"/commit", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, EndpointCommit, req)
}

// Recent queries the most recent items across timelines.
func (c *Client) Recent(ctx context.Context, timelines []string) (*Response, error) {
	query := url.Values{}
	query.Set("timelines", strings.Join(timelines, ","))

	req, err := http.NewRequest(http.MethodGet, c.BaseURL()+"/timelines/recent?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	return c.do(ctx, EndpointRecent, req)
}

// Message fetches a message resource. token is sent as a bearer credential when non-empty.
func (c *Client) Message(ctx context.Context, resourceID, token string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL()+"/message/"+url.PathEscape(resourceID), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(ctx, EndpointMessage, req)
}

// Package rexster is a client for graph databases served over the Rexster
// REST protocol. It exposes the server, its graphs, vertices, edges and
// indices as Go values so callers never build requests or parse JSON by hand.
package rexster

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Transport defines the request/response boundary the object model is built
// on. It abstracts the three verbs the protocol needs, allowing for different
// implementations or fakes in tests.
//
// An error return is reserved for transport failures (the request never got
// a reply). Any reply, whatever its status, is a *Response.
type Transport interface {
	// Get issues a GET against rawURL with the optional query parameters.
	Get(ctx context.Context, rawURL string, query url.Values) (*Response, error)
	// Post issues a POST with the optional query parameters and a
	// form-encoded body.
	Post(ctx context.Context, rawURL string, query, form url.Values) (*Response, error)
	// Delete issues a DELETE with the optional query parameters.
	Delete(ctx context.Context, rawURL string, query url.Values) (*Response, error)
}

// Response is a fully-buffered reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the reply carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

//---

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	Client    *http.Client
	UserAgent string
	logger    *slog.Logger
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.Client = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(t *HTTPTransport) {
		t.UserAgent = ua
	}
}

// WithTransportLogger makes the transport log each round trip at debug level.
// A nil logger keeps the default, which discards.
func WithTransportLogger(l *slog.Logger) HTTPOption {
	return func(t *HTTPTransport) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewHTTPTransport creates a transport backed by http.DefaultClient unless
// configured otherwise.
func NewHTTPTransport(opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		Client:    http.DefaultClient,
		UserAgent: "go-rexster",
		logger:    discardLogger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return t.do(ctx, http.MethodGet, rawURL, query, nil)
}

// Post implements Transport. A nil form sends an empty body.
func (t *HTTPTransport) Post(ctx context.Context, rawURL string, query, form url.Values) (*Response, error) {
	return t.do(ctx, http.MethodPost, rawURL, query, form)
}

// Delete implements Transport.
func (t *HTTPTransport) Delete(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return t.do(ctx, http.MethodDelete, rawURL, query, nil)
}

func (t *HTTPTransport) do(ctx context.Context, method, rawURL string, query, form url.Values) (*Response, error) {
	target, err := withQuery(rawURL, query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s request", method)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := t.Client.Do(req)
	if err != nil {
		t.logger.Debug("rexster request failed",
			"method", method, "url", target, "request_id", requestID, "error", err)
		return nil, errors.Wrapf(err, "%s %s", method, target)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, errors.Wrapf(err, "read %s %s response", method, target)
	}

	t.logger.Debug("rexster request",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	return &Response{StatusCode: resp.StatusCode, Body: buf.Bytes()}, nil
}

// withQuery appends query to rawURL, keeping any query already present.
func withQuery(rawURL string, query url.Values) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse url %q", rawURL)
	}
	if u.RawQuery == "" {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery += "&" + query.Encode()
	}
	return u.String(), nil
}

var discardLogger = slog.New(slog.DiscardHandler)

package rexster

import (
	"context"
	"net/url"

	"golang.org/x/time/rate"
)

// RateLimitedTransport bounds the request rate of an inner Transport. Bulk
// walks such as Graph.Snapshot issue one request per element and can easily
// flood a small server.
type RateLimitedTransport struct {
	inner   Transport
	limiter *rate.Limiter
}

// NewRateLimitedTransport allows perSecond requests per second with the given
// burst. A non-positive perSecond disables limiting.
func NewRateLimitedTransport(inner Transport, perSecond float64, burst int) *RateLimitedTransport {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedTransport{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

// Get implements Transport.
func (t *RateLimitedTransport) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Get(ctx, rawURL, query)
}

// Post implements Transport.
func (t *RateLimitedTransport) Post(ctx context.Context, rawURL string, query, form url.Values) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Post(ctx, rawURL, query, form)
}

// Delete implements Transport.
func (t *RateLimitedTransport) Delete(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Delete(ctx, rawURL, query)
}

package rexster

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport answers canned GET responses and forwards everything else.
type stubTransport struct {
	inner Transport
	get   map[string]*Response
}

func (t *stubTransport) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	if resp, ok := t.get[rawURL]; ok {
		return resp, nil
	}
	return t.inner.Get(ctx, rawURL, query)
}

func (t *stubTransport) Post(ctx context.Context, rawURL string, query, form url.Values) (*Response, error) {
	return t.inner.Post(ctx, rawURL, query, form)
}

func (t *stubTransport) Delete(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return t.inner.Delete(ctx, rawURL, query)
}

// countingTransport answers every request with a fixed response and counts
// the calls.
type countingTransport struct {
	mu     sync.Mutex
	calls  int
	status int
	err    error
}

func (t *countingTransport) answer() (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.err != nil {
		return nil, t.err
	}
	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{StatusCode: status, Body: []byte(`{}`)}, nil
}

func (t *countingTransport) Get(context.Context, string, url.Values) (*Response, error) {
	return t.answer()
}

func (t *countingTransport) Post(context.Context, string, url.Values, url.Values) (*Response, error) {
	return t.answer()
}

func (t *countingTransport) Delete(context.Context, string, url.Values) (*Response, error) {
	return t.answer()
}

func (t *countingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func TestHTTPTransport_Headers(t *testing.T) {
	var got *http.Request
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got, body = r, string(data)
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()

	tr := NewHTTPTransport(WithUserAgent("rexster-test/1.0"))
	resp, err := tr.Post(context.Background(), srv.URL+"/tinkergraph/vertices/1", nil, url.Values{"name": {"marko"}})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	assert.Equal(t, "rexster-test/1.0", got.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	assert.Equal(t, "name=marko", body)

	_, err = uuid.Parse(got.Header.Get("X-Request-Id"))
	assert.NoError(t, err, "request id must be a uuid")
}

func TestHTTPTransport_NoFormNoContentType(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()

	_, err := NewHTTPTransport().Post(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Header.Get("Content-Type"))
	assert.Equal(t, "go-rexster", got.Header.Get("User-Agent"))
}

func TestHTTPTransport_NonSuccessIsAResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, message("Vertex with [9] cannot be found."))
	}))
	defer srv.Close()

	resp, err := NewHTTPTransport().Delete(context.Background(), srv.URL+"/g/vertices/9", url.Values{"name": {""}})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "cannot be found")
}

func TestHTTPTransport_TransportError(t *testing.T) {
	client := &http.Client{Timeout: 50 * time.Millisecond}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(WithHTTPClient(client)).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET "+srv.URL)
}

func TestWithQuery(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		query url.Values
		want  string
	}{
		{name: "no query", raw: "http://h/g/vertices", want: "http://h/g/vertices"},
		{name: "added", raw: "http://h/g/vertices/1/outE", query: url.Values{"_label": {"knows"}}, want: "http://h/g/vertices/1/outE?_label=knows"},
		{name: "appended", raw: "http://h/g?rexster.offset.start=0", query: url.Values{"key": {"name"}}, want: "http://h/g?rexster.offset.start=0&key=name"},
		{name: "escaped", raw: "http://h/g/indices/i", query: url.Values{"value": {"(integer,29)"}}, want: "http://h/g/indices/i?value=%28integer%2C29%29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := withQuery(tt.raw, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimitedTransport(t *testing.T) {
	inner := &countingTransport{}

	t.Run("unlimited", func(t *testing.T) {
		tr := NewRateLimitedTransport(inner, 0, 0)
		for i := 0; i < 50; i++ {
			_, err := tr.Get(context.Background(), "http://h", nil)
			require.NoError(t, err)
		}
		assert.Equal(t, 50, inner.count())
	})

	t.Run("blocks past the burst", func(t *testing.T) {
		tr := NewRateLimitedTransport(inner, 0.001, 1)
		before := inner.count()

		_, err := tr.Post(context.Background(), "http://h", nil, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = tr.Delete(ctx, "http://h", nil)
		assert.Error(t, err)
		assert.Equal(t, before+1, inner.count(), "the limited request never reached the inner transport")
	})
}

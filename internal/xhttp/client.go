package xhttp

import (
	"net/http"
	"time"
)

type ClientOption func(*http.Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *http.Client) { c.Timeout = d }
}

// WithBaseTransport wraps base instead of http.DefaultTransport.
func WithBaseTransport(base http.RoundTripper) ClientOption {
	return func(c *http.Client) { c.Transport = &storefrontTransport{base: base} }
}

// WithoutRedirects makes the client return redirect responses as-is, which
// is what a proxy forwarding to an origin needs.
func WithoutRedirects() ClientOption {
	return func(c *http.Client) {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

func NewHTTPClient(opts ...ClientOption) *http.Client {
	c := &http.Client{Transport: NewTransport()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

package xhttp

import (
	"fmt"
	"net/http"

	"github.com/garrettladley/storefront/internal/version"
)

type storefrontTransport struct {
	base http.RoundTripper
}

var _ http.RoundTripper = (*storefrontTransport)(nil)

func (t *storefrontTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get(UserAgent) == "" {
		req.Header.Set(UserAgent, version.UserAgent())
	}
	req.Header.Set(version.Header, version.Get())
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform round trip: %w", err)
	}
	return resp, nil
}

// NewTransport returns an http.RoundTripper with standard storefront headers.
func NewTransport() http.RoundTripper {
	return &storefrontTransport{base: http.DefaultTransport}
}

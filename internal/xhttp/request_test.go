package xhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetRequestIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{name: "peer ipv4 with port", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "peer without port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
		{name: "peer ipv6 with port", remoteAddr: "[2001:db8::1]:1234", want: "2001:db8::1"},
		{name: "peer ipv6 without port", remoteAddr: "2001:db8::1", want: "2001:db8::1"},
		{name: "single forwarded hop wins", xff: "203.0.113.195", remoteAddr: "192.0.2.1:1234", want: "203.0.113.195"},
		{name: "forwarded hop with port", xff: "203.0.113.195:8080", remoteAddr: "192.0.2.1:1234", want: "203.0.113.195"},
		{name: "forwarded ipv6 with port", xff: "[2001:db8::1]:8080", remoteAddr: "192.0.2.1:1234", want: "2001:db8::1"},
		{name: "first of a forwarded chain", xff: "203.0.113.195, 10.0.0.7", remoteAddr: "10.0.0.8:443", want: "203.0.113.195"},
		{name: "blank first hop falls back to peer", xff: " , 10.0.0.7", remoteAddr: "10.0.0.8:443", want: "10.0.0.8"},
		{name: "nothing known", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := newRequest(t, tt.xff, tt.remoteAddr)
			if got := GetRequestIP(req); got != tt.want {
				t.Errorf("GetRequestIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForwardedFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{name: "direct client", remoteAddr: "198.51.100.4:5555", want: "198.51.100.4"},
		{name: "appends peer to chain", xff: "203.0.113.195", remoteAddr: "10.0.0.8:443", want: "203.0.113.195, 10.0.0.8"},
		{name: "unknown peer keeps chain", xff: "203.0.113.195", want: "203.0.113.195"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := newRequest(t, tt.xff, tt.remoteAddr)
			if got := ForwardedFor(req); got != tt.want {
				t.Errorf("ForwardedFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newRequest(t *testing.T, xff, remoteAddr string) *http.Request {
	t.Helper()

	req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "http://shop.example.com/cart", nil)
	if xff != "" {
		req.Header.Set(XForwardedFor, xff)
	}
	req.RemoteAddr = remoteAddr
	return req
}

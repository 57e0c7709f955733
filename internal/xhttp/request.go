package xhttp

import (
	"net"
	"net/http"
	"strings"
)

// GetRequestIP returns the originating client address: the first hop of
// X-Forwarded-For when present, else the peer address.
func GetRequestIP(r *http.Request) string {
	if xff := r.Header.Get(XForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := hostOnly(strings.TrimSpace(first)); ip != "" {
			return ip
		}
	}
	return RemoteIP(r)
}

// RemoteIP is the address of the immediate peer, ignoring forwarding headers.
func RemoteIP(r *http.Request) string {
	return hostOnly(r.RemoteAddr)
}

// ForwardedFor is the X-Forwarded-For value to send upstream: the inbound
// chain with the immediate peer appended.
func ForwardedFor(r *http.Request) string {
	peer := RemoteIP(r)
	prior := strings.TrimSpace(r.Header.Get(XForwardedFor))
	switch {
	case prior == "":
		return peer
	case peer == "":
		return prior
	default:
		return prior + ", " + peer
	}
}

func hostOnly(addr string) string {
	if ip, _, err := net.SplitHostPort(addr); err == nil {
		return ip
	}
	return addr
}

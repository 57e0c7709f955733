package offline

import (
	"net/http"
	"strings"

	"github.com/garrettladley/storefront/internal/xhttp"
)

// The cache is shared by every client of the edge, so only anonymous
// requests are served from it and only public, uniform responses are
// stored in it.

// bypassesCache reports whether req carries credentials or asks for a
// partial body. Such requests never read from or write to the cache.
func bypassesCache(req *http.Request) bool {
	return req.Header.Get(xhttp.Cookie) != "" ||
		req.Header.Get(xhttp.Authorization) != "" ||
		req.Header.Get(xhttp.Range) != ""
}

// storable reports whether resp may be shared with other clients.
// Responses must be identity encoded and may only vary on Accept-Encoding,
// since the router always fetches without one.
func storable(resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.StatusCode == http.StatusPartialContent {
		return false
	}
	if resp.Header.Get(xhttp.SetCookie) != "" {
		return false
	}
	if enc := resp.Header.Get(xhttp.ContentEncoding); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}
	for _, directive := range headerTokens(resp.Header, xhttp.CacheControl) {
		name, _, _ := strings.Cut(directive, "=")
		switch name {
		case "private", "no-store", "no-cache":
			return false
		}
	}
	for _, field := range headerTokens(resp.Header, xhttp.Vary) {
		if field != "accept-encoding" {
			return false
		}
	}
	return true
}

// headerTokens splits every value of a comma-separated header into
// lowercased, trimmed tokens.
func headerTokens(h http.Header, name string) []string {
	var tokens []string
	for _, v := range h.Values(name) {
		for _, tok := range strings.Split(v, ",") {
			if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// withoutContentNegotiation clones req without Accept-Encoding so the
// fetcher decodes the body and stored entries suit every client.
func withoutContentNegotiation(req *http.Request) *http.Request {
	if req.Header.Get(xhttp.AcceptEncoding) == "" {
		return req
	}
	out := req.Clone(req.Context())
	out.Header.Del(xhttp.AcceptEncoding)
	return out
}

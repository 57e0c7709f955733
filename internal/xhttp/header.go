package xhttp

import (
	"net/http"
	"strconv"
	"time"
)

const (
	XForwardedFor    = "X-Forwarded-For"
	XContentTypeOpts = "X-Content-Type-Options"
	XFrameOpts       = "X-Frame-Options"
	ReferrerPolicy   = "Referrer-Policy"
	XRequestID       = "X-Request-Id"
	XSignature       = "X-Signature"
	XRateLimitReason = "X-RateLimit-Reason"
	XCache           = "X-Cache"
	XCachePartition  = "X-Cache-Partition"
)

const (
	ContentType     = "Content-Type"
	ContentLength   = "Content-Length"
	ContentEncoding = "Content-Encoding"
	CacheControl    = "Cache-Control"
	Authorization   = "Authorization"
	Accept          = "Accept"
	AcceptEncoding  = "Accept-Encoding"
	Vary            = "Vary"
	Cookie          = "Cookie"
	SetCookie       = "Set-Cookie"
	Range           = "Range"
	UserAgent       = "User-Agent"
	RetryAfter      = "Retry-After"
)

const NoStore = "no-store"

const (
	ApplicationJSON = "application/json"
	TextHTML        = "text/html; charset=utf-8"
	TextPlain       = "text/plain; charset=utf-8"
)

func SetHeaderRequestID(w http.ResponseWriter, requestID string) {
	w.Header().Set(XRequestID, requestID)
}

// SetHeaderCacheControlNoStore keeps the response out of the edge cache and
// out of browser caches.
func SetHeaderCacheControlNoStore(w http.ResponseWriter) {
	w.Header().Set(CacheControl, NoStore)
}

func SetHeaderContentTypeApplicationJSON(w http.ResponseWriter) {
	w.Header().Set(ContentType, ApplicationJSON)
}

func SetHeaderContentTypeTextHTML(w http.ResponseWriter) {
	w.Header().Set(ContentType, TextHTML)
}

func SetHeaderRetryAfter(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set(RetryAfter, strconv.Itoa(seconds))
}

// hopByHop lists headers that must not be forwarded by a proxy or stored
// alongside a cached response.
var hopByHop = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func IsHopByHopHeader(name string) bool {
	_, ok := hopByHop[http.CanonicalHeaderKey(name)]
	return ok
}

// CopyEndToEndHeaders copies src into dst, skipping hop-by-hop headers.
func CopyEndToEndHeaders(dst, src http.Header) {
	for name, values := range src {
		if IsHopByHopHeader(name) {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/garrettladley/storefront/internal/xhttp"
)

// SecurityHeaders sets headers for the storefront API. Responses default to
// no-store since they carry order and payment state; handlers that
// serve shareable data set their own Cache-Control. The edge does not use it
// because origin pages set their own framing policy.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xhttp.SetHeaderCacheControlNoStore(w)
		w.Header().Set(xhttp.XContentTypeOpts, "nosniff")
		w.Header().Set(xhttp.XFrameOpts, "DENY")
		w.Header().Set(xhttp.ReferrerPolicy, "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

package payment

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo is parsed from the provider's rate limit response headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Duration
}

const (
	limitHeaderKey     = "X-Ratelimit-Limit"
	remainingHeaderKey = "X-Ratelimit-Remaining"
	resetHeaderKey     = "X-Ratelimit-Reset"
)

// ParseRateLimitHeaders returns nil, nil when any of the headers is missing.
func ParseRateLimitHeaders(headers http.Header) (*RateLimitInfo, error) {
	var (
		limitStr     = headers.Get(limitHeaderKey)
		remainingStr = headers.Get(remainingHeaderKey)
		resetStr     = headers.Get(resetHeaderKey)
	)

	if limitStr == "" || remainingStr == "" || resetStr == "" {
		return nil, nil
	}

	limit, err := parseRateLimitValue(limitStr)
	if err != nil {
		return nil, err
	}
	remaining, err := parseRateLimitValue(remainingStr)
	if err != nil {
		return nil, err
	}
	resetSeconds, err := strconv.ParseInt(strings.TrimSpace(resetStr), 10, 64)
	if err != nil {
		return nil, err
	}

	return &RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		Reset:     time.Duration(resetSeconds) * time.Second,
	}, nil
}

// parseRateLimitValue takes the first value of a header such as
// "100, 100;window=60".
func parseRateLimitValue(s string) (int, error) {
	value, _, _ := strings.Cut(s, ",")
	value, _, _ = strings.Cut(value, ";")
	return strconv.Atoi(strings.TrimSpace(value))
}

package payment

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	go_json "github.com/goccy/go-json"
)

type APIError struct {
	StatusCode int
	Message    string
	// RateLimit is set when the provider sent rate limit headers.
	RateLimit *RateLimitInfo
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment api: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the provider.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	if info, err := ParseRateLimitHeaders(resp.Header); err == nil {
		apiErr.RateLimit = info
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := go_json.Unmarshal(body, &errResp); err != nil {
		if len(body) > 0 {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	switch {
	case errResp.Message != "":
		apiErr.Message = errResp.Message
	case errResp.Error != "":
		apiErr.Message = errResp.Error
	}
	return apiErr
}

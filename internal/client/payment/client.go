// Package payment is a client for the payment provider's REST API. It covers
// the two calls the storefront makes: reading a payment record after a
// webhook and creating a checkout preference.
package payment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/garrettladley/storefront/internal/xhttp"
	"github.com/garrettladley/storefront/internal/xslog"
)

const (
	DefaultBaseURL = "https://api.mercadopago.com"

	idempotencyKeyHeader = "X-Idempotency-Key"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	newKey     func() string
}

// New builds a client that authenticates every request with a bearer token
// from tokenSource.
func New(tokenSource oauth2.TokenSource, opts ...Option) *Client {
	cfg := &clientConfig{
		baseURL:   DefaultBaseURL,
		logger:    slog.Default(),
		timeout:   10 * time.Second,
		transport: http.DefaultTransport,
		newKey:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := &oauth2.Transport{
		Source: oauth2.ReuseTokenSource(nil, tokenSource),
		Base:   cfg.transport,
	}

	return &Client{
		baseURL: cfg.baseURL,
		httpClient: xhttp.NewHTTPClient(
			xhttp.WithTimeout(cfg.timeout),
			xhttp.WithBaseTransport(transport),
		),
		logger: cfg.logger,
		newKey: cfg.newKey,
	}
}

// NewWithAccessToken is New with a static, non-expiring access token, which
// is how the provider issues server credentials.
func NewWithAccessToken(accessToken string, opts ...Option) *Client {
	return New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}), opts...)
}

type clientConfig struct {
	baseURL   string
	logger    *slog.Logger
	timeout   time.Duration
	transport http.RoundTripper
	newKey    func() string
}

type Option func(*clientConfig)

func WithBaseURL(baseURL string) Option {
	return func(cfg *clientConfig) { cfg.baseURL = baseURL }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = logger }
}

func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *clientConfig) { cfg.transport = rt }
}

// WithIdempotencyKeyFunc overrides how POST idempotency keys are generated.
func WithIdempotencyKeyFunc(fn func() string) Option {
	return func(cfg *clientConfig) { cfg.newKey = fn }
}

// GetPaymentRecord fetches the current state of a payment.
func (c *Client) GetPaymentRecord(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &p); err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	return &p, nil
}

// CreatePreference registers a checkout preference and returns the URLs the
// buyer is redirected to.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	var p Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &p); err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		b, err := go_json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(xhttp.Accept, xhttp.ApplicationJSON)
	if body != nil {
		req.Header.Set(xhttp.ContentType, xhttp.ApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, c.newKey())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "payment provider request",
		xslog.RequestMethod(req),
		xslog.RequestPath(req),
		xslog.HTTPStatus(resp.StatusCode),
		xslog.Duration(time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if err := go_json.Unmarshal(b, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

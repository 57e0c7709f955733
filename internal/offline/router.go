// Package offline implements the storefront's offline cache router. It
// intercepts outbound GET requests, classifies them, and serves them
// cache-first or network-first from a versioned set of cache partitions,
// falling back to an offline page or a synthetic 503 when both fail.
package offline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/garrettladley/storefront/internal/metrics"
	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xslog"
)

// Fetcher performs network requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	// Prefix and Version name the partitions, e.g. "storefront" and "v3"
	// give "storefront-static-v3".
	Prefix  string
	Version string
	// Precache lists absolute URLs stored in the static partition on
	// install.
	Precache []string
	// OfflineURL is the absolute URL of the precached offline page.
	OfflineURL string
	// SkipWaiting activates as soon as install completes.
	SkipWaiting bool
	// MaxEntryBytes caps the size of a response body that will be stored.
	MaxEntryBytes int64
	// RevalidateTimeout bounds each background revalidation.
	RevalidateTimeout time.Duration
	// PrecacheConcurrency bounds parallel fetches during install.
	PrecacheConcurrency int
}

func (c *Config) setDefaults() {
	if c.Prefix == "" {
		c.Prefix = "storefront"
	}
	if c.Version == "" {
		c.Version = "v1"
	}
	if c.MaxEntryBytes <= 0 {
		c.MaxEntryBytes = 10 << 20
	}
	if c.RevalidateTimeout <= 0 {
		c.RevalidateTimeout = 30 * time.Second
	}
	if c.PrecacheConcurrency <= 0 {
		c.PrecacheConcurrency = 4
	}
}

// Partitions holds the names of the current version's partitions.
type Partitions struct {
	Static  string
	Dynamic string
	// Legacy is the umbrella name older releases used. It is never written
	// to and exists so cleanup recognises it as current.
	Legacy string
}

func (p Partitions) contains(name string) bool {
	return name == p.Static || name == p.Dynamic || name == p.Legacy
}

func (p Partitions) List() []string {
	return []string{p.Static, p.Dynamic, p.Legacy}
}

func partitionsFor(prefix, version string) Partitions {
	return Partitions{
		Static:  fmt.Sprintf("%s-static-%s", prefix, version),
		Dynamic: fmt.Sprintf("%s-dynamic-%s", prefix, version),
		Legacy:  fmt.Sprintf("%s-%s", prefix, version),
	}
}

type Router struct {
	cfg        Config
	partitions Partitions
	caches     storage.CacheStorage
	fetcher    Fetcher
	classifier *Classifier
	metrics    *metrics.Cache
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.RWMutex
	state       State
	skipWaiting bool
	draining    bool

	revalidations sync.WaitGroup
}

type Option func(*Router)

func WithClassifier(c *Classifier) Option {
	return func(r *Router) { r.classifier = c }
}

func WithMetrics(m *metrics.Cache) Option {
	return func(r *Router) { r.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func NewRouter(cfg Config, caches storage.CacheStorage, fetcher Fetcher, opts ...Option) *Router {
	cfg.setDefaults()
	r := &Router{
		cfg:        cfg,
		partitions: partitionsFor(cfg.Prefix, cfg.Version),
		caches:     caches,
		fetcher:    fetcher,
		classifier: DefaultClassifier(),
		logger:     slog.Default(),
		now:        time.Now,
		state:      StateInstalling,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Partitions() Partitions { return r.partitions }

// Wait blocks until every in-flight background revalidation has finished.
// Callers must not serve requests concurrently; use Drain during shutdown.
func (r *Router) Wait() {
	r.revalidations.Wait()
}

// Drain stops scheduling background revalidations and waits for the
// in-flight ones. Cache hits are still served afterwards.
func (r *Router) Drain() {
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()
	r.revalidations.Wait()
}

// Intercepts reports whether req is eligible for cache handling at all.
func Intercepts(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	switch req.URL.Scheme {
	case "http", "https":
		return true
	default:
		return false
	}
}

// RequestKey identifies a request in a partition.
func RequestKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

// Fetch satisfies req the way the router would when installed in front of
// the network. Requests that are not intercepted, or that arrive before the
// router is active, go straight to the network. Intercepted requests never
// return an error: failures end in the offline page or a synthetic 503.
func (r *Router) Fetch(req *http.Request) (*http.Response, error) {
	if !Intercepts(req) || r.State() != StateActive {
		return r.fetcher.Do(req)
	}

	ctx := req.Context()
	resp, class, err := r.Handle(req)
	if err == nil {
		return resp, nil
	}

	r.logger.WarnContext(ctx, "cache router failed, serving fallback",
		slog.String("key", RequestKey(req)),
		xslog.Classification(class.String()),
		xslog.Error(err),
	)

	if class == ClassificationPage && r.cfg.OfflineURL != "" {
		cached, partition, mErr := r.caches.Match(ctx, http.MethodGet+" "+r.cfg.OfflineURL)
		if mErr == nil {
			r.metrics.ObserveDecision(class.String(), class.Strategy().String(), "offline")
			return cachedToResponse(req, cached, partition, cacheOffline), nil
		}
		if !errors.Is(mErr, storage.ErrNotFound) {
			r.logger.ErrorContext(ctx, "offline page lookup failed", xslog.Error(mErr))
		}
	}

	r.metrics.ObserveDecision(class.String(), class.Strategy().String(), "unavailable")
	return serviceUnavailable(req), nil
}

// Handle classifies req and applies its strategy. Requests carrying
// credentials or a Range skip the cache. Unlike Fetch it returns the
// strategy's error, such as a network failure with nothing cached.
func (r *Router) Handle(req *http.Request) (*http.Response, Classification, error) {
	class := r.classifier.Classify(req.URL)
	if bypassesCache(req) {
		resp, err := r.bypass(req, class)
		return resp, class, err
	}
	req = withoutContentNegotiation(req)

	var (
		resp *http.Response
		err  error
	)
	switch class.Strategy() {
	case StrategyCacheFirst:
		resp, err = r.cacheFirst(req, class)
	case StrategyNetworkFirst:
		resp, err = r.networkFirst(req, class)
	}
	return resp, class, err
}

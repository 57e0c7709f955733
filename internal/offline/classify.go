package offline

import (
	"net/url"
	"path"
	"strings"
)

type Classification uint8

const (
	ClassificationOther Classification = iota
	ClassificationPage
	ClassificationAPI
	ClassificationAsset
)

func (c Classification) String() string {
	switch c {
	case ClassificationPage:
		return "page"
	case ClassificationAPI:
		return "api"
	case ClassificationAsset:
		return "asset"
	case ClassificationOther:
		return "other"
	}
	return "other"
}

// Strategy is fixed per classification.
func (c Classification) Strategy() Strategy {
	switch c {
	case ClassificationPage, ClassificationAsset:
		return StrategyCacheFirst
	case ClassificationAPI, ClassificationOther:
		return StrategyNetworkFirst
	}
	return StrategyNetworkFirst
}

type Strategy uint8

const (
	StrategyNetworkFirst Strategy = iota
	StrategyCacheFirst
)

func (s Strategy) String() string {
	if s == StrategyCacheFirst {
		return "cache-first"
	}
	return "network-first"
}

var (
	DefaultPageRoutes = []string{
		"/",
		"/apple",
		"/cart",
		"/dashboard",
		"/trade-in",
		"/products",
		"/checkout",
		"/search",
	}

	DefaultAPIPrefixes = []string{"/api/"}

	DefaultAssetExtensions = []string{
		".js", ".css",
		".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
		".woff", ".woff2", ".ttf", ".eot",
	}
)

type rule struct {
	class Classification
	match func(u *url.URL) bool
}

// Classifier maps a URL to a Classification. Rules are evaluated in order
// and the first match wins: page, then api, then asset.
type Classifier struct {
	rules []rule
}

func NewClassifier(pageRoutes, apiPrefixes, assetExtensions []string) *Classifier {
	return &Classifier{
		rules: []rule{
			{class: ClassificationPage, match: matchPage(pageRoutes)},
			{class: ClassificationAPI, match: matchAPI(apiPrefixes)},
			{class: ClassificationAsset, match: matchAsset(assetExtensions)},
		},
	}
}

// DefaultClassifier uses the storefront's routes and extensions. apiHosts
// are added to DefaultAPIPrefixes, typically the payment provider and the
// database REST host.
func DefaultClassifier(apiHosts ...string) *Classifier {
	prefixes := append(append([]string(nil), DefaultAPIPrefixes...), apiHosts...)
	return NewClassifier(DefaultPageRoutes, prefixes, DefaultAssetExtensions)
}

func (c *Classifier) Classify(u *url.URL) Classification {
	for _, r := range c.rules {
		if r.match(u) {
			return r.class
		}
	}
	return ClassificationOther
}

// matchPage matches a path equal to a route or below it at a segment
// boundary. "/" only matches itself.
func matchPage(routes []string) func(*url.URL) bool {
	return func(u *url.URL) bool {
		p := u.Path
		if p == "" {
			p = "/"
		}
		for _, route := range routes {
			if p == route {
				return true
			}
			if route == "/" {
				continue
			}
			if strings.HasPrefix(p, strings.TrimSuffix(route, "/")+"/") {
				return true
			}
		}
		return false
	}
}

func matchAPI(prefixes []string) func(*url.URL) bool {
	return func(u *url.URL) bool {
		full := u.String()
		for _, prefix := range prefixes {
			if prefix != "" && strings.Contains(full, prefix) {
				return true
			}
		}
		return false
	}
}

func matchAsset(exts []string) func(*url.URL) bool {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return func(u *url.URL) bool {
		_, ok := set[strings.ToLower(path.Ext(u.Path))]
		return ok
	}
}

package edge

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	appenv "github.com/garrettladley/storefront/internal/env"
	xredis "github.com/garrettladley/storefront/internal/redis"
)

type Config struct {
	Port   string             `env:"PORT" envDefault:"8081"`
	Env    appenv.Environment `env:"ENV" envDefault:"development"`
	Origin string             `env:"ORIGIN_URL,required"`
	Cache  Cache              `envPrefix:"CACHE_"`
	Redis  xredis.Config      `envPrefix:"REDIS_"`
	// ControlToken guards the control endpoint. Empty disables it.
	ControlToken string `env:"CONTROL_TOKEN"`
}

type Cache struct {
	// Backend is one of memory, redis or sqlite.
	Backend           string        `env:"BACKEND" envDefault:"memory"`
	SQLitePath        string        `env:"SQLITE_PATH"`
	Prefix            string        `env:"PREFIX" envDefault:"storefront"`
	Version           string        `env:"VERSION" envDefault:"v3"`
	Precache          []string      `env:"PRECACHE" envDefault:"/,/offline.html,/manifest.json"`
	OfflinePath       string        `env:"OFFLINE_PATH" envDefault:"/offline.html"`
	APIHosts          []string      `env:"API_HOSTS" envDefault:"api.mercadopago.com"`
	CleanupInterval   time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	RevalidateTimeout time.Duration `env:"REVALIDATE_TIMEOUT" envDefault:"30s"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	MaxEntryBytes     int64         `env:"MAX_ENTRY_BYTES" envDefault:"10485760"`
}

func ReadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if _, err := cfg.OriginURL(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// OriginURL parses Origin, which must be an absolute http(s) URL.
func (c Config) OriginURL() (*url.URL, error) {
	u, err := url.Parse(c.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid ORIGIN_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid ORIGIN_URL %q: must be an absolute http(s) URL", c.Origin)
	}
	return u, nil
}

// Resolve turns an origin-relative path into an absolute URL string.
func (c Config) Resolve(path string) string {
	u, err := c.OriginURL()
	if err != nil {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return u.ResolveReference(ref).String()
}

// Package config reads the settings shared by the operator tooling.
package config

import (
	"github.com/caarlos0/env/v11"

	xredis "github.com/garrettladley/storefront/internal/redis"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendSQLite = "sqlite"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL"`
	Cache       Cache         `envPrefix:"CACHE_"`
	Redis       xredis.Config `envPrefix:"REDIS_"`
}

// Cache names the edge cache a tool operates on. It mirrors the edge's own
// CACHE_ settings so both resolve to the same partitions.
type Cache struct {
	Backend    string `env:"BACKEND" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH"`
	Prefix     string `env:"PREFIX" envDefault:"storefront"`
	Version    string `env:"VERSION" envDefault:"v3"`
}

func Read() (Config, error) {
	return env.ParseAs[Config]()
}

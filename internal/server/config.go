package server

import (
	"time"

	"github.com/caarlos0/env/v11"

	appenv "github.com/garrettladley/storefront/internal/env"
	xredis "github.com/garrettladley/storefront/internal/redis"
)

type Config struct {
	Port      string             `env:"PORT" envDefault:"8080"`
	Env       appenv.Environment `env:"ENV" envDefault:"development"`
	Database  Database           `envPrefix:"DATABASE_"`
	Redis     xredis.Config      `envPrefix:"REDIS_"`
	Payment   Payment            `envPrefix:"PAYMENT_"`
	Checkout  Checkout           `envPrefix:"CHECKOUT_"`
	RateLimit RateLimit          `envPrefix:"RATE_"`
}

type Database struct {
	URL string `env:"URL"`
}

type Payment struct {
	// WebhookSecret keys the HMAC on inbound notifications.
	WebhookSecret string        `env:"WEBHOOK_SECRET,required"`
	AccessToken   string        `env:"ACCESS_TOKEN,required"`
	BaseURL       string        `env:"BASE_URL" envDefault:"https://api.mercadopago.com"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type Checkout struct {
	Currency        string `env:"CURRENCY" envDefault:"ARS"`
	SuccessURL      string `env:"SUCCESS_URL"`
	FailureURL      string `env:"FAILURE_URL"`
	PendingURL      string `env:"PENDING_URL"`
	NotificationURL string `env:"NOTIFICATION_URL"`
}

type RateLimit struct {
	Limit  int64         `env:"LIMIT" envDefault:"60"`
	Window time.Duration `env:"WINDOW" envDefault:"1m"`
}

func ReadConfig() (Config, error) {
	return env.ParseAs[Config]()
}

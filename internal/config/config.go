package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read once at startup.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	GatewayURL     string        `env:"GATEWAY_WS_URL,required,notEmpty"`
	GatewayOrigin  string        `env:"GATEWAY_WS_ORIGIN"`
	GatewayToken   string        `env:"GATEWAY_TOKEN"`
	ReconnectDelay time.Duration `env:"GATEWAY_RECONNECT_DELAY" envDefault:"5s"`

	CatalogPath string `env:"CATALOG_PATH"`

	ActivationsTable string `env:"ACTIVATIONS_TABLE,required,notEmpty"`

	// ParamPrefix enables SSM Parameter Store lookups for secrets that are not
	// set directly in the environment.
	ParamPrefix          string `env:"PARAM_PREFIX"`
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return c, nil
}

// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// CPanelConfig points at a WHM server.
type CPanelConfig struct {
	BaseURL  string `env:"CPANEL_BASE_URL"`
	Username string `env:"CPANEL_USERNAME" envDefault:"root"`
	Token    string `env:"CPANEL_TOKEN"`
}

// SSLConfig points at the certificate authority API.
type SSLConfig struct {
	BaseURL string `env:"SSL_BASE_URL"`
	Token   string `env:"SSL_TOKEN"`
}

// DomainsConfig points at the registrar API.
type DomainsConfig struct {
	BaseURL string `env:"DOMAINS_BASE_URL"`
	APIKey  string `env:"DOMAINS_API_KEY"`
}

// SupportConfig points at the helpdesk API.
type SupportConfig struct {
	BaseURL string `env:"SUPPORT_BASE_URL"`
	Token   string `env:"SUPPORT_TOKEN"`
}

// Config holds everything the service reads at startup. Provider sections
// with an empty base URL are skipped during handler registration, so a
// deployment only configures the providers it actually uses.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"proviq.db"`

	QueueMaxWorkers  int           `env:"QUEUE_MAX_WORKERS" envDefault:"5"`
	QueueMaxAttempts int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"10"`
	HandlerTimeout   time.Duration `env:"HANDLER_TIMEOUT" envDefault:"30s"`

	CPanel  CPanelConfig
	SSL     SSLConfig
	Domains DomainsConfig
	Support SupportConfig
}

// Load reads an optional .env file, then parses the environment.
func Load() (Config, error) {
	// A missing .env file is fine, the real environment still applies.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

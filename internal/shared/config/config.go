package config

import (
	"encoding/hex"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	Version     string `env:"VERSION" envDefault:"0.1.0"`
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`

	// SecretKey is the hex encoded AES key used to encrypt session cookies.
	SecretKey string `env:"SECRET_KEY"`

	// ActivityAPIURL is the base URL of the activity service gateway.
	ActivityAPIURL string `env:"ACTIVITY_API_URL" envDefault:"http://localhost:8085"`

	// Identity provider settings (Keycloak-compatible authorization code flow).
	OAuthIssuerURL    string   `env:"OAUTH_ISSUER_URL"`
	OAuthClientID     string   `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	OAuthRedirectURL  string   `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:8080/auth/callback"`
	OAuthScopes       []string `env:"OAUTH_SCOPES" envSeparator:" " envDefault:"openid profile email"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsEnvProd() bool {
	if c.Environment == "prod" && c.SentryDSN != "" {
		return true
	}
	return false
}

// NewSecretKey decodes the configured cookie encryption key.
// The key must decode to 16, 24 or 32 bytes (AES-128/192/256).
func NewSecretKey(cfg *Config) ([]byte, error) {
	key, err := hex.DecodeString(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("SECRET_KEY is not valid hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("SECRET_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}

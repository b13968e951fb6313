package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "dev", cfg.Environment)
	require.Equal(t, "http://localhost:8085", cfg.ActivityAPIURL)
	require.Equal(t, "http://localhost:8080/auth/callback", cfg.OAuthRedirectURL)
	require.Equal(t, []string{"openid", "profile", "email"}, cfg.OAuthScopes)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("OAUTH_SCOPES", "openid email")

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "prod", cfg.Environment)
	require.Equal(t, []string{"openid", "email"}, cfg.OAuthScopes)
}

func TestIsEnvProd(t *testing.T) {
	require.False(t, (&Config{Environment: "dev"}).IsEnvProd())
	require.False(t, (&Config{Environment: "prod"}).IsEnvProd(), "prod without a DSN stays local")
	require.True(t, (&Config{Environment: "prod", SentryDSN: "https://x@sentry.example/1"}).IsEnvProd())
}

func TestNewSecretKey(t *testing.T) {
	t.Run("valid 32 byte key", func(t *testing.T) {
		cfg := &Config{SecretKey: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"}
		key, err := NewSecretKey(cfg)
		require.NoError(t, err)
		require.Len(t, key, 32)
	})

	t.Run("valid 16 byte key", func(t *testing.T) {
		cfg := &Config{SecretKey: "000102030405060708090a0b0c0d0e0f"}
		key, err := NewSecretKey(cfg)
		require.NoError(t, err)
		require.Len(t, key, 16)
	})

	t.Run("not hex", func(t *testing.T) {
		_, err := NewSecretKey(&Config{SecretKey: "zz"})
		require.Error(t, err)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := NewSecretKey(&Config{SecretKey: "0001"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "16, 24 or 32 bytes")
	})
}

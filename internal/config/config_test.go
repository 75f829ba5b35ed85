package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "mongodb://127.0.0.1:27017", cfg.Database.URI)
	assert.Equal(t, "accounts", cfg.Database.Name)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 10*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.SecureCookies)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ACCOUNT_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("ACCOUNT_DATABASE_NAME", "accounts_test")
	t.Setenv("ACCOUNT_AUTH_ACCESSTOKENSECRET", "s1")
	t.Setenv("ACCOUNT_AUTH_REFRESHTOKENSECRET", "s2")
	t.Setenv("ACCOUNT_AUTH_ACCESSTOKENTTLMIN", "5")
	t.Setenv("ACCOUNT_AUTH_REFRESHTOKENTTLDAY", "1")
	t.Setenv("ACCOUNT_AUTH_SECURECOOKIES", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "accounts_test", cfg.Database.Name)
	assert.Equal(t, "s1", cfg.Auth.AccessTokenSecret)
	assert.Equal(t, "s2", cfg.Auth.RefreshTokenSecret)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL())
	assert.False(t, cfg.Auth.SecureCookies)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrntr/marketplace/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	v := New()
	v.Set(KeyAuthSecret, "s3cret")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.RedisTTL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, models.Address("0xmarketplace"), cfg.Address)
	assert.Equal(t, []string{"land", "estate"}, cfg.Collections)
	assert.True(t, cfg.IsFingerprinted("estate"))
	assert.False(t, cfg.IsFingerprinted("land"))
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Admin)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MARKET_AUTH_SECRET", "from-env")
	t.Setenv("MARKET_HTTP_ADDR", ":9999")
	t.Setenv("MARKET_MARKET_ADMIN", "0xadmin")
	t.Setenv("MARKET_MARKET_COLLECTIONS", "land,wearables")
	t.Setenv("MARKET_MARKET_FINGERPRINTED", "wearables")
	t.Setenv("MARKET_AUTH_TOKEN_TTL", "1h")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AuthSecret)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, models.Address("0xadmin"), cfg.Admin)
	assert.Equal(t, []string{"land", "wearables"}, cfg.Collections)
	assert.Equal(t, []string{"wearables"}, cfg.Fingerprinted)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  secret: from-file
redis:
  addr: localhost:6379
  ttl: 5s
market:
  collections: [land]
  fingerprinted: [land]
`), 0o600))

	v := New()
	v.Set(KeyConfigFile, path)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AuthSecret)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Second, cfg.RedisTTL)
	assert.Equal(t, []string{"land"}, cfg.Collections)
	assert.Equal(t, []string{"land"}, cfg.Fingerprinted)
}

func TestValidate(t *testing.T) {
	valid := Config{
		AuthSecret:  "x",
		TokenTTL:    time.Hour,
		Address:     "0xmarket",
		Collections: []string{"land"},
	}

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"MissingSecret", func(c *Config) { c.AuthSecret = "" }},
		{"ZeroTokenTTL", func(c *Config) { c.TokenTTL = 0 }},
		{"MissingAddress", func(c *Config) { c.Address = "" }},
		{"NoCollections", func(c *Config) { c.Collections = nil }},
		{"UnknownFingerprinted", func(c *Config) { c.Fingerprinted = []string{"estate"} }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	_, err := Load(New())
	assert.Error(t, err, "defaults lack a secret")
}

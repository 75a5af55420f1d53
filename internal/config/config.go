// Package config loads marketd settings from flags, MARKET_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xtrntr/marketplace/internal/models"
)

const EnvPrefix = "MARKET"

// Keys
const (
	KeyConfigFile    = "config"
	KeyHTTPAddr      = "http.addr"
	KeyDatabaseURL   = "database.url"
	KeyRedisAddr     = "redis.addr"
	KeyRedisPassword = "redis.password"
	KeyRedisDB       = "redis.db"
	KeyRedisTTL      = "redis.ttl"
	KeyAuthSecret    = "auth.secret"
	KeyTokenTTL      = "auth.token_ttl"
	KeyLogFormat     = "log.format"
	KeyLogLevel      = "log.level"
	KeyAdmin         = "market.admin"
	KeyAddress       = "market.address"
	KeyCollections   = "market.collections"
	KeyFingerprinted = "market.fingerprinted"
)

type Config struct {
	HTTPAddr string

	// DatabaseURL is optional. Without it users and event history live in memory.
	DatabaseURL string

	// RedisAddr is optional. Without it listings are cached in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	AuthSecret string
	TokenTTL   time.Duration

	LogFormat string
	LogLevel  string

	// Admin may change fees and the base URI. Empty disables administration.
	Admin models.Address
	// Address is the custody address of the marketplace itself.
	Address models.Address
	// Collections are served by in-process registries; Fingerprinted is the subset that supports fingerprints.
	Collections   []string
	Fingerprinted []string
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisTTL, 30*time.Second)
	v.SetDefault(KeyTokenTTL, 24*time.Hour)
	v.SetDefault(KeyLogFormat, "plain")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAddress, "0xmarketplace")
	v.SetDefault(KeyCollections, []string{"land", "estate"})
	v.SetDefault(KeyFingerprinted, []string{"estate"})
	return v
}

// Load reads the optional config file named by the "config" key and returns the validated settings.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Config{
		HTTPAddr:      v.GetString(KeyHTTPAddr),
		DatabaseURL:   v.GetString(KeyDatabaseURL),
		RedisAddr:     v.GetString(KeyRedisAddr),
		RedisPassword: v.GetString(KeyRedisPassword),
		RedisDB:       v.GetInt(KeyRedisDB),
		RedisTTL:      v.GetDuration(KeyRedisTTL),
		AuthSecret:    v.GetString(KeyAuthSecret),
		TokenTTL:      v.GetDuration(KeyTokenTTL),
		LogFormat:     v.GetString(KeyLogFormat),
		LogLevel:      v.GetString(KeyLogLevel),
		Admin:         models.Address(v.GetString(KeyAdmin)),
		Address:       models.Address(v.GetString(KeyAddress)),
		Collections:   list(v, KeyCollections),
		Fingerprinted: list(v, KeyFingerprinted),
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings marketd cannot run without.
func (c Config) Validate() error {
	if c.AuthSecret == "" {
		return errors.New("auth.secret is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.TokenTTL)
	}
	if c.Address == "" {
		return errors.New("market.address is required")
	}
	if len(c.Collections) == 0 {
		return errors.New("market.collections is empty")
	}
	for _, id := range c.Fingerprinted {
		if !c.HasCollection(id) {
			return fmt.Errorf("fingerprinted collection %q is not in market.collections", id)
		}
	}
	return nil
}

// HasCollection reports whether id is a configured collection.
func (c Config) HasCollection(id string) bool {
	for _, col := range c.Collections {
		if col == id {
			return true
		}
	}
	return false
}

// IsFingerprinted reports whether the collection id supports fingerprints.
func (c Config) IsFingerprinted(id string) bool {
	for _, col := range c.Fingerprinted {
		if col == id {
			return true
		}
	}
	return false
}

// list reads a string list that may also be given as one comma separated value.
func list(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

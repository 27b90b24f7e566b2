// Package config loads application configuration from file, environment, and
// defaults via viper, behind a small read-only wrapper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is a read-only view over a viper instance.
type Config struct {
	v *viper.Viper
}

// New wraps an existing viper instance.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load reads configuration from the given file path (optional), environment
// variables prefixed VITRINE_, and built-in defaults, in that precedence
// order (file beats defaults, env beats file).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 0)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.path", "vitrine.db")
	v.SetDefault("uploads.dir", "uploads")

	v.SetEnvPrefix("VITRINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	return New(v), nil
}

// GetString returns the string value for key.
func (c *Config) GetString(key string) string { return c.v.GetString(key) }

// GetInt returns the int value for key.
func (c *Config) GetInt(key string) int { return c.v.GetInt(key) }

// GetFloat64 returns the float value for key.
func (c *Config) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

// GetBool returns the bool value for key.
func (c *Config) GetBool(key string) bool { return c.v.GetBool(key) }

// GetDuration returns the duration value for key.
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }

// IsSet reports whether key has a value from any source.
func (c *Config) IsSet(key string) bool { return c.v.IsSet(key) }

// Sub returns the subtree under key, or nil if the key is absent.
func (c *Config) Sub(key string) *Config {
	sub := c.v.Sub(key)
	if sub == nil {
		return nil
	}
	return New(sub)
}

// Package config loads client settings from a file, COUCH_* environment
// variables and explicit overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/robert-malhotra/go-couch-client/pkg/client"
)

// EnvPrefix is prepended to every environment variable, e.g. COUCH_URL.
const EnvPrefix = "COUCH"

var (
	// ErrInvalidURL is returned when the CouchDB URL is missing or relative.
	ErrInvalidURL = errors.New("config: couchdb url must be an absolute URL")
	// ErrMissingDatabase is returned when no database name is configured.
	ErrMissingDatabase = errors.New("config: database name is required")
)

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds the settings shared by the CLI, the TUI and provisioning.
type Config struct {
	URL       string        `mapstructure:"url"`
	Database  string        `mapstructure:"database"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	Log       LogConfig     `mapstructure:"log"`
}

var keys = []string{
	"url", "database", "username", "password", "timeout",
	"rate_limit", "burst", "log.level", "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("url", "http://localhost:5984")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("burst", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads path (optional, any format viper supports), then the
// environment, then overrides. Later sources win. The result is not
// validated.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings needed to reach a database.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if c.URL == "" || err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, c.URL)
	}
	if c.Database == "" {
		return ErrMissingDatabase
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate limit must not be negative, got %g", c.RateLimit)
	}
	return nil
}

// ClientOptions turns the settings into client options. Credentials are only
// applied when both username and password are set.
func (c *Config) ClientOptions() []client.ClientOption {
	return []client.ClientOption{
		client.WithBaseURL(c.URL),
		client.WithDatabase(c.Database),
		client.WithTimeout(c.Timeout),
		client.WithBasicAuth(c.Username, c.Password),
		client.WithRateLimit(c.RateLimit, c.Burst),
	}
}

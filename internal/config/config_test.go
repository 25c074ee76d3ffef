package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5984", cfg.URL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1, cfg.Burst)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabase)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "couch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: http://file:5984
database: from_file
username: filer
timeout: 5s
rate_limit: 2.5
log:
  level: debug
  format: json
`), 0o600))

	t.Setenv("COUCH_DATABASE", "from_env")
	t.Setenv("COUCH_LOG_FORMAT", "text")

	cfg, err := Load(path, map[string]any{"username": "flag"})
	require.NoError(t, err)
	assert.Equal(t, "http://file:5984", cfg.URL)
	assert.Equal(t, "from_env", cfg.Database)
	assert.Equal(t, "flag", cfg.Username)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{URL: "http://localhost:5984", Database: "blog"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"empty url", func(c *Config) { c.URL = "" }, ErrInvalidURL},
		{"relative url", func(c *Config) { c.URL = "/couch" }, ErrInvalidURL},
		{"no host", func(c *Config) { c.URL = "http://" }, ErrInvalidURL},
		{"no database", func(c *Config) { c.Database = "" }, ErrMissingDatabase},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, nil},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	cfg := Config{URL: "http://localhost:5984", Database: "blog", Timeout: time.Second, Username: "admin", Password: "pw", RateLimit: 10, Burst: 2}
	c, err := client.New[couch.DynamicDoc](cfg.ClientOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "blog", c.Database())
	assert.Equal(t, "http://localhost:5984", c.BaseURL())
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3000", c.EndpointAddr)
	assert.Equal(t, DefaultSecretKey, c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, DriverSQLite, c.StorageDriver)
	assert.Equal(t, "data/decision_keeper.db", c.StoragePath)
	assert.Equal(t, HasherBcrypt, c.PasswordHasher)
	assert.Equal(t, 10, c.BcryptCost)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, "strict", c.CookieSameSite)
	assert.Empty(t, c.RedisAddr)
	assert.Equal(t, 20, c.RateLimit)
	assert.Equal(t, time.Minute, c.RateWindow)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.True(t, c.UsesDefaultSecret())
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want.StorageDriver, c.StorageDriver)
	assert.Equal(t, want.SessionTTL, c.SessionTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(c *Config) {}},
		{name: "postgres ok", mutate: func(c *Config) { c.StorageDriver = DriverPostgres }},
		{name: "bolt ok", mutate: func(c *Config) { c.StorageDriver = DriverBolt }},
		{name: "argon2 ok", mutate: func(c *Config) { c.PasswordHasher = HasherArgon2 }},
		{name: "samesite none ok", mutate: func(c *Config) { c.CookieSameSite = "None" }},
		{name: "rate limit disabled", mutate: func(c *Config) { c.RateLimit = 0; c.RateWindow = 0 }},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "mongo" }, wantErr: "unknown storage driver"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StorageDriver = DriverPostgres; c.DatabaseDSN = "" }, wantErr: "needs a database DSN"},
		{name: "file driver without path", mutate: func(c *Config) { c.StoragePath = " " }, wantErr: "needs a storage path"},
		{name: "unknown hasher", mutate: func(c *Config) { c.PasswordHasher = "md5" }, wantErr: "unknown password hasher"},
		{name: "bad samesite", mutate: func(c *Config) { c.CookieSameSite = "sometimes" }, wantErr: "SameSite"},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret key"},
		{name: "zero ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: "session TTL"},
		{name: "window missing", mutate: func(c *Config) { c.RateWindow = 0 }, wantErr: "invalid rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

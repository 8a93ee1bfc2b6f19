package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/decisionkeeper/internal/flagx"
	"github.com/dmitrijs2005/decisionkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON config files. Every field is optional:
// only the keys present in the file override the current values. Durations
// accept "24h"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddr    *string         `json:"endpoint_addr"`
	SecretKey       *string         `json:"secret_key"`
	SessionTTL      *timex.Duration `json:"session_ttl"`
	StorageDriver   *string         `json:"storage_driver"`
	DatabaseDSN     *string         `json:"database_dsn"`
	StoragePath     *string         `json:"storage_path"`
	PasswordHasher  *string         `json:"password_hasher"`
	BcryptCost      *int            `json:"bcrypt_cost"`
	CookieSecure    *bool           `json:"cookie_secure"`
	CookieSameSite  *string         `json:"cookie_samesite"`
	RedisAddr       *string         `json:"redis_addr"`
	RateLimit       *int            `json:"rate_limit"`
	RateWindow      *timex.Duration `json:"rate_window"`
	CORSOrigins     []string        `json:"cors_origins"`
	LogLevel        *string         `json:"log_level"`
	LogFormat       *string         `json:"log_format"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config (if any) over config.
// An unreadable file or invalid JSON panics, like invalid flags do.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigPath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.EndpointAddr, c.EndpointAddr)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.StorageDriver, c.StorageDriver)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.StoragePath, c.StoragePath)
	setIf(&config.PasswordHasher, c.PasswordHasher)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.CookieSameSite, c.CookieSameSite)
	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.RateLimit, c.RateLimit)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.LogFormat, c.LogFormat)

	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.RateWindow != nil {
		config.RateWindow = c.RateWindow.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

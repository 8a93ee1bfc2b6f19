package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig lists the environment variables understood by the server. Unset
// variables leave the corresponding pointer nil and do not override anything.
type EnvConfig struct {
	Address         *string        `env:"ADDRESS"`
	Port            *string        `env:"PORT"`
	SecretKey       *string        `env:"JWT_SECRET"`
	SessionTTL      *time.Duration `env:"SESSION_TTL"`
	StorageDriver   *string        `env:"STORAGE_DRIVER"`
	DatabaseDSN     *string        `env:"DATABASE_URL"`
	StoragePath     *string        `env:"STORAGE_PATH"`
	PasswordHasher  *string        `env:"PASSWORD_HASHER"`
	BcryptCost      *int           `env:"BCRYPT_COST"`
	CookieSecure    *bool          `env:"COOKIE_SECURE"`
	CookieSameSite  *string        `env:"COOKIE_SAMESITE"`
	RedisAddr       *string        `env:"REDIS_ADDR"`
	RateLimit       *int           `env:"RATE_LIMIT"`
	RateWindow      *time.Duration `env:"RATE_WINDOW"`
	CORSOrigins     []string       `env:"CORS_ORIGINS" envSeparator:","`
	LogLevel        *string        `env:"LOG_LEVEL"`
	LogFormat       *string        `env:"LOG_FORMAT"`
	ShutdownTimeout *time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// parseEnv overlays environment variables on config. PORT is shorthand for
// ADDRESS=":PORT"; an explicit ADDRESS wins. Malformed values panic.
func parseEnv(config *Config) {
	c := &EnvConfig{}
	if err := env.Parse(c); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}

	if c.Port != nil && strings.TrimSpace(*c.Port) != "" {
		config.EndpointAddr = ":" + strings.TrimSpace(*c.Port)
	}
	setIf(&config.EndpointAddr, c.Address)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.SessionTTL, c.SessionTTL)
	setIf(&config.StorageDriver, c.StorageDriver)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.StoragePath, c.StoragePath)
	setIf(&config.PasswordHasher, c.PasswordHasher)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.CookieSameSite, c.CookieSameSite)
	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.RateLimit, c.RateLimit)
	setIf(&config.RateWindow, c.RateWindow)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.LogFormat, c.LogFormat)
	setIf(&config.ShutdownTimeout, c.ShutdownTimeout)

	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
}

package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/decisionkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":3000")
//	-s string     session signing secret
//	-t duration   session lifetime (e.g., "24h")
//	-k string     storage driver: postgres, sqlite or bolt
//	-d string     PostgreSQL DSN
//	-f string     database file for sqlite/bolt
//	-r string     Redis address for rate limiting
//	-l string     log level
//
// os.Args is first filtered down to these flags with flagx.FilterArgs, so the
// -c/-config flag handled by parseJson does not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-t", "-k", "-d", "-f", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session signing secret")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.StorageDriver, "k", config.StorageDriver, "storage driver (postgres|sqlite|bolt)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StoragePath, "f", config.StoragePath, "database file for sqlite/bolt")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address for rate limiting")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

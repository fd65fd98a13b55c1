// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"os"
	"time"

	"github.com/craftstat/craftstat/internal/logger"
	"github.com/craftstat/craftstat/internal/vars"
	"github.com/jessevdk/go-flags"
)

// Config represents the complete application flags configuration.
type Config struct {
	Probe     Probe         `group:"Probe Options" env-namespace:"CRAFTSTAT"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"CRAFTSTAT_DB"`
	Server    Server        `group:"Server Options" namespace:"http" env-namespace:"CRAFTSTAT_HTTP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"CRAFTSTAT_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"CRAFTSTAT_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Probe holds the server probing configuration.
type Probe struct {
	Address         string        `short:"a" long:"address" env:"ADDRESS" description:"Probe a single server address, print the result and exit"`
	Protocol        string        `short:"p" long:"protocol" env:"PROTOCOL" description:"Protocol preference" choice:"auto" choice:"java" choice:"bedrock" default:"auto"`
	Timeout         time.Duration `long:"timeout" env:"TIMEOUT" description:"Per-attempt probe timeout" default:"5s"`
	AlwaysIdenticon bool          `long:"always-identicon" env:"ALWAYS_IDENTICON" description:"Ignore server favicons and always generate identicons"`
}

// Storage holds the status cache database configuration.
type Storage struct {
	Path           string `short:"d" long:"path" env:"PATH" description:"Path to SQLite status cache" default:"craftstat.db"`
	List           bool   `long:"list" description:"List cached server addresses and exit"`
	PruneOlderDays int    `long:"prune-older" description:"Delete cache records not updated for N days, then exit" default:"0"`
	GenerateCount  int    `long:"gen-fake-data" hidden:"true"`
}

// Server holds the HTTP surface configuration.
type Server struct {
	Address    string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"HTTP listen address" default:":8080"`
	TrustProxy bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	MaxAddrLen int    `long:"max-address-length" env:"MAX_ADDRESS_LENGTH" description:"Max accepted server address length" default:"253"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	Count  int           `long:"count" env:"COUNT" description:"Per-IP limit: requests count" default:"8"`
	Window time.Duration `long:"window" env:"WINDOW" description:"Per-IP limit: window duration" default:"1m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return &cfg
}

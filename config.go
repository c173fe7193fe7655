package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

const envPrefix = "BLOG_"

// Config is the runtime configuration, assembled from (lowest to highest
// precedence) flag defaults, a YAML file, BLOG_* environment variables and
// flags set on the command line.
type Config struct {
	Addr            string        `koanf:"addr"`
	DBPath          string        `koanf:"db_path"`
	JWTSecret       string        `koanf:"jwt_secret"`
	BcryptCost      int           `koanf:"bcrypt_cost"`
	LogFormat       string        `koanf:"log_format"`
	LogLevel        string        `koanf:"log_level"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return oops.Code("CONFIG_MISSING_SECRET").
			Hint("set BLOG_JWT_SECRET or jwt_secret in the config file").
			Wrap(ErrMissingSecret)
	}
	if c.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("addr is required")
	}
	if c.DBPath == "" {
		return oops.Code("CONFIG_INVALID").Errorf("db_path is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return oops.Code("CONFIG_INVALID").Errorf("bcrypt_cost must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

// addConfigFlags registers the flags loadConfig reads. Flag names use dashes;
// the matching config keys use underscores.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("addr", ":3000", "HTTP listen address")
	fs.String("db-path", "blog.db", "SQLite database file")
	fs.String("jwt-secret", "", "session signing secret")
	fs.Int("bcrypt-cost", 10, "bcrypt work factor")
	fs.String("log-format", "text", "log format (json or text)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("metrics-addr", "", "metrics/health listen address (empty = disabled)")
	fs.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}

// loadConfig reads .env (if present), then layers configPath, the
// environment and fs into a Config.
func loadConfig(configPath string, fs *pflag.FlagSet) (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", configPath).Wrap(err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if fs != nil {
		flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		})
		if err := k.Load(flags, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

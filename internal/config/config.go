// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authcore configuration from flags, a YAML file and
// the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/authcore/internal/auth"
)

// ProductionEnvironment is the environment name that enables production
// safeguards: Secure cookies and a mandatory secret key.
const ProductionEnvironment = "production"

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// insecureDefaultSecret is only ever used outside production.
//
//nolint:gosec // G101: deliberately public development value
const insecureDefaultSecret = "insecure-development-secret-key"

// Default values for flags.
const (
	defaultEnvironment  = "development"
	defaultStore        = StorePostgres
	defaultHTTPAddr     = "127.0.0.1:8080"
	defaultMetricsAddr  = "127.0.0.1:9100"
	defaultLogFormat    = "json"
	defaultLogLevel     = "info"
	defaultCookieName   = "token"
	defaultHashParallel = 0
)

// Config is the immutable process configuration.
type Config struct {
	Environment       string        `koanf:"environment" jsonschema:"description=Deployment environment; production enables secure cookies"`
	SecretKey         string        `koanf:"secret-key" jsonschema:"description=Token signing secret"`
	DatabaseURL       string        `koanf:"database-url" jsonschema:"description=PostgreSQL connection string"`
	Store             string        `koanf:"store" jsonschema:"enum=postgres,enum=memory"`
	HTTPAddr          string        `koanf:"http-addr"`
	MetricsAddr       string        `koanf:"metrics-addr"`
	LogFormat         string        `koanf:"log-format" jsonschema:"enum=json,enum=text"`
	LogLevel          string        `koanf:"log-level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	PasswordAlgorithm string        `koanf:"password-algorithm" jsonschema:"enum=bcrypt,enum=argon2id"`
	PasswordCost      int           `koanf:"password-cost" jsonschema:"minimum=0"`
	HashConcurrency   int           `koanf:"hash-concurrency" jsonschema:"minimum=0"`
	TokenTTL          time.Duration `koanf:"token-ttl"`
	CookieName        string        `koanf:"cookie-name" jsonschema:"minLength=1"`
	CookieMaxAge      time.Duration `koanf:"cookie-max-age"`
}

// keys lists every configuration key. Each may be set from the environment
// as the upper-cased key with '-' replaced by '_'.
var keys = []string{
	"environment",
	"secret-key",
	"database-url",
	"store",
	"http-addr",
	"metrics-addr",
	"log-format",
	"log-level",
	"password-algorithm",
	"password-cost",
	"hash-concurrency",
	"token-ttl",
	"cookie-name",
	"cookie-max-age",
}

// EnvName returns the environment variable for key.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// RegisterFlags defines the configuration flags on fs. Their defaults are
// the lowest precedence layer.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("environment", defaultEnvironment, "deployment environment (production enables secure cookies)")
	fs.String("secret-key", "", "token signing secret (prefer SECRET_KEY)")
	fs.String("database-url", "", "PostgreSQL connection string")
	fs.String("store", defaultStore, "user store backend (postgres or memory)")
	fs.String("http-addr", defaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", defaultLogFormat, "log format (json or text)")
	fs.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("password-algorithm", auth.AlgorithmBcrypt, "password hashing algorithm (bcrypt or argon2id)")
	fs.Int("password-cost", 0, "hashing cost; bcrypt work factor or argon2id iterations (0 = algorithm default)")
	fs.Int("hash-concurrency", defaultHashParallel, "maximum concurrent password hashes (0 = GOMAXPROCS)")
	fs.Duration("token-ttl", auth.DefaultTokenTTL, "session token lifetime")
	fs.String("cookie-name", defaultCookieName, "session cookie name")
	fs.Duration("cookie-max-age", auth.DefaultCookieMaxAge, "session cookie lifetime")
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Load merges, in increasing precedence: flag defaults, the YAML file at
// path (if non-empty), environment variables, and flags set explicitly.
// A nil lookup selects os.LookupEnv.
func Load(fs *pflag.FlagSet, path string, lookup LookupEnv) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	k := koanf.New(".")

	if path != "" {
		if err := ValidateFile(path); err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	for _, key := range keys {
		if v, ok := lookup(EnvName(key)); ok {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
			}
		}
	}

	// Unchanged flags only fill keys that no earlier layer set.
	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "decode").Wrap(err)
	}
	return cfg, nil
}

// IsProduction reports whether production safeguards apply.
func (c *Config) IsProduction() bool {
	return c.Environment == ProductionEnvironment
}

// UsingInsecureSecret reports whether tokens will be signed with the
// built-in development secret.
func (c *Config) UsingInsecureSecret() bool {
	return c.SecretKey == "" && !c.IsProduction()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var problems []string
	if c.Environment == "" {
		problems = append(problems, "environment is required")
	}
	if c.IsProduction() && c.SecretKey == "" {
		problems = append(problems, "secret-key is required in production")
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "database-url is required for the postgres store")
		}
	case StoreMemory:
		if c.IsProduction() {
			problems = append(problems, "memory store is not allowed in production")
		}
	default:
		problems = append(problems, fmt.Sprintf("store must be 'postgres' or 'memory', got %q", c.Store))
	}
	if c.HTTPAddr == "" {
		problems = append(problems, "http-addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, fmt.Sprintf("log-format must be 'json' or 'text', got %q", c.LogFormat))
	}
	switch c.PasswordAlgorithm {
	case auth.AlgorithmBcrypt:
		if c.PasswordCost != 0 && (c.PasswordCost < 4 || c.PasswordCost > 31) {
			problems = append(problems, fmt.Sprintf("password-cost must be between 4 and 31 for bcrypt, got %d", c.PasswordCost))
		}
	case auth.AlgorithmArgon2id:
		if c.PasswordCost < 0 {
			problems = append(problems, "password-cost must not be negative")
		}
	default:
		problems = append(problems, fmt.Sprintf("password-algorithm must be 'bcrypt' or 'argon2id', got %q", c.PasswordAlgorithm))
	}
	if c.HashConcurrency < 0 {
		problems = append(problems, "hash-concurrency must not be negative")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "token-ttl must be positive")
	}
	if c.CookieName == "" {
		problems = append(problems, "cookie-name is required")
	}
	if c.CookieMaxAge <= 0 {
		problems = append(problems, "cookie-max-age must be positive")
	}

	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TokenConfig returns the token service configuration. Outside production
// a missing secret falls back to a fixed development value; callers should
// warn when UsingInsecureSecret reports true.
func (c *Config) TokenConfig() auth.TokenConfig {
	secret := c.SecretKey
	if c.UsingInsecureSecret() {
		secret = insecureDefaultSecret
	}
	return auth.TokenConfig{
		Secret: []byte(secret),
		TTL:    c.TokenTTL,
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package config loads identityd configuration from defaults, an optional
// YAML file, the environment and command-line flags, in that order.
package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/idkit/identityd/internal/identity"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full identityd configuration.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Store   StoreConfig   `koanf:"store"`
	Auth    AuthConfig    `koanf:"auth"`
	Seed    SeedConfig    `koanf:"seed"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
}

// StoreConfig selects and configures the credential store. AutoMigrate
// applies pending schema migrations before serving.
type StoreConfig struct {
	Driver         string        `koanf:"driver"`
	DatabaseURL    string        `koanf:"database_url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// AuthConfig configures credential handling.
type AuthConfig struct {
	PasswordScheme string `koanf:"password_scheme"`
}

// SeedConfig names a seed file applied at startup. Empty disables seeding.
type SeedConfig struct {
	File string `koanf:"file"`
}

// Defaults returns the built-in configuration values keyed by koanf path.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":             ":8000",
		"http.read_timeout":     10 * time.Second,
		"http.write_timeout":    10 * time.Second,
		"http.shutdown_timeout": 5 * time.Second,
		"metrics.addr":          "127.0.0.1:9100",
		"log.format":            "json",
		"store.driver":          DriverPostgres,
		"store.database_url":    "",
		"store.connect_timeout": 30 * time.Second,
		"store.auto_migrate":    true,
		"auth.password_scheme":  identity.SchemePlaintext,
		"seed.file":             "",
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":            "http.addr",
	"metrics-addr":    "metrics.addr",
	"log-format":      "log.format",
	"store":           "store.driver",
	"database-url":    "store.database_url",
	"auto-migrate":    "store.auto_migrate",
	"password-scheme": "auth.password_scheme",
	"seed-file":       "seed.file",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("addr", d["http.addr"].(string), "HTTP listen address")
	fs.String("metrics-addr", d["metrics.addr"].(string), "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", d["log.format"].(string), "log format (json or text)")
	fs.String("store", d["store.driver"].(string), "credential store driver (postgres or memory)")
	fs.String("database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	fs.Bool("auto-migrate", d["store.auto_migrate"].(bool), "apply pending migrations on startup (postgres only)")
	fs.String("password-scheme", d["auth.password_scheme"].(string), "password storage scheme (plaintext or argon2id)")
	fs.String("seed-file", "", "YAML seed file applied at startup")
}

// Load builds a Config. path may be empty; fs may be nil. getenv supplies
// DATABASE_URL and may be nil.
func Load(path string, fs *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")
	for key, val := range Defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if getenv != nil {
		if url := getenv("DATABASE_URL"); url != "" {
			if err := k.Set("store.database_url", url); err != nil {
				return nil, oops.Code("CONFIG_INVALID").With("key", "store.database_url").Wrap(err)
			}
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Log),
		validation.Field(&c.Store),
		validation.Field(&c.Auth),
	)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}

// Validate implements validation.Validatable.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.Required, validation.In("json", "text")),
	)
}

// Validate implements validation.Validatable.
func (c StoreConfig) Validate() error {
	var urlRules []validation.Rule
	if c.Driver == DriverPostgres {
		urlRules = append(urlRules, validation.Required.Error("is required for the postgres driver"))
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverPostgres, DriverMemory)),
		validation.Field(&c.DatabaseURL, urlRules...),
	)
}

// Validate implements validation.Validatable.
func (c AuthConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PasswordScheme, validation.In(identity.SchemePlaintext, identity.SchemeArgon2id)),
	)
}

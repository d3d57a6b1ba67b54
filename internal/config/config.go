// Package config loads the storefront server configuration: defaults, then
// an optional YAML file, then STOREFRONT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/medatechnology/goutil/medaerror"
	"gopkg.in/yaml.v3"

	store "github.com/medatechnology/storefront"
	"github.com/medatechnology/storefront/apper"
	"github.com/medatechnology/storefront/postgres"
	"github.com/medatechnology/storefront/rqlite"
)

const (
	BackendApper    = "apper"
	BackendRqlite   = "rqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	DefaultAddress = ":8080"
	envPrefix      = "STOREFRONT_"
)

var ErrInvalidConfiguration medaerror.MedaError = medaerror.MedaError{Message: "invalid storefront configuration"}

type Config struct {
	Backend  string                  `yaml:"backend"`
	Server   ServerConfig            `yaml:"server"`
	Log      LogConfig               `yaml:"log"`
	Apper    ApperConfig             `yaml:"apper"`
	Rqlite   RqliteConfig            `yaml:"rqlite"`
	Postgres postgres.PostgresConfig `yaml:"postgres"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ApperConfig struct {
	BaseURL    string        `yaml:"base_url"`
	ProjectID  string        `yaml:"project_id"`
	PublicKey  string        `yaml:"public_key"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
	Tracing    bool          `yaml:"tracing"`
}

type RqliteConfig struct {
	URL         string `yaml:"url"`
	Consistency string `yaml:"consistency"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// Default returns a configuration that serves the in-memory backend.
func Default() *Config {
	return &Config{
		Backend: BackendMemory,
		Server: ServerConfig{
			Address:      DefaultAddress,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Apper: ApperConfig{
			Timeout:    apper.DEFAULT_TIMEOUT,
			RetryCount: apper.DEFAULT_MAX_RETRIES,
		},
		Rqlite:   RqliteConfig{URL: rqlite.DEFAULT_URL},
		Postgres: *postgres.NewDefaultConfig(),
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile merges a YAML file over the current values.
func (c *Config) LoadFromFile(path string) error {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: unsupported config file extension %q", ErrInvalidConfiguration, ext)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", clean, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return nil
}

// LoadFromEnv applies STOREFRONT_* overrides.
func (c *Config) LoadFromEnv() error {
	setString(&c.Backend, "BACKEND")
	setString(&c.Server.Address, "ADDRESS")
	setString(&c.Log.Level, "LOG_LEVEL")

	setString(&c.Apper.BaseURL, "APPER_BASE_URL")
	setString(&c.Apper.ProjectID, "APPER_PROJECT_ID")
	setString(&c.Apper.PublicKey, "APPER_PUBLIC_KEY")
	if err := setDuration(&c.Apper.Timeout, "APPER_TIMEOUT"); err != nil {
		return err
	}
	if v, ok := lookup("APPER_RETRY_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sAPPER_RETRY_COUNT=%q", ErrInvalidConfiguration, envPrefix, v)
		}
		c.Apper.RetryCount = n
	}
	if v, ok := lookup("APPER_TRACING"); ok {
		c.Apper.Tracing = parseBool(v)
	}

	setString(&c.Rqlite.URL, "RQLITE_URL")
	setString(&c.Rqlite.Consistency, "RQLITE_CONSISTENCY")
	setString(&c.Rqlite.Username, "RQLITE_USERNAME")
	setString(&c.Rqlite.Password, "RQLITE_PASSWORD")

	if v, ok := lookup("POSTGRES_DSN"); ok {
		pg, err := postgres.ParseDSN(v)
		if err != nil {
			return err
		}
		c.Postgres = *pg
	}
	setString(&c.Postgres.Password, "POSTGRES_PASSWORD")
	return nil
}

// Validate checks the selected backend's section only.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendApper:
		return c.ApperClientConfig().Validate()
	case BackendRqlite:
		return c.RqliteClientConfig().Validate()
	case BackendPostgres:
		return c.Postgres.Validate()
	}
	return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfiguration, c.Backend)
}

func (c *Config) LogLevel() store.LogLevel {
	return store.ParseLogLevel(c.Log.Level)
}

func (c *Config) ApperClientConfig() apper.Config {
	return apper.Config{
		BaseURL:    c.Apper.BaseURL,
		ProjectID:  c.Apper.ProjectID,
		PublicKey:  c.Apper.PublicKey,
		Timeout:    c.Apper.Timeout,
		RetryCount: c.Apper.RetryCount,
		Tracing:    c.Apper.Tracing,
	}.WithDefaults()
}

func (c *Config) RqliteClientConfig() rqlite.Config {
	return rqlite.Config{
		URL:         c.Rqlite.URL,
		Consistency: c.Rqlite.Consistency,
		Username:    c.Rqlite.Username,
		Password:    c.Rqlite.Password,
	}
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q", ErrInvalidConfiguration, envPrefix, name, v)
	}
	*dst = d
	return nil
}

// parseBool accepts "true", "1", "yes" and "on", case-insensitive.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

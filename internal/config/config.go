// ABOUTME: Configuration loading and parsing for larpd
// ABOUTME: YAML files with env var expansion, plus LARPD_* env overrides

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the complete larpd configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" env:"LARPD_HTTP_ADDR"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" env:"LARPD_DB_PATH"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"LARPD_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"-" env:"LARPD_TOKEN_TTL"`

	// Raw string value for YAML unmarshaling
	TokenTTLRaw string `yaml:"token_ttl" env:"-"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LARPD_LOG_LEVEL"`
	Format string `yaml:"format" env:"LARPD_LOG_FORMAT"`
}

// DefaultTokenTTL applies when auth.token_ttl is not set
const DefaultTokenTTL = 24 * time.Hour

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded
// inside the YAML, and LARPD_* environment variables override file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := finish(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a Config from LARPD_* environment variables alone, for
// container deployments that ship no config file
func FromEnv() (*Config, error) {
	var cfg Config
	if err := finish(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config) error {
	if cfg.Auth.TokenTTLRaw != "" {
		ttl, err := time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
		cfg.Auth.TokenTTL = ttl
	}

	// env overrides win over file values
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}
	return nil
}

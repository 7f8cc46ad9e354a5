// Package config loads the service configuration from a YAML file with
// environment-variable overrides. Environment always wins over the file so
// container deployments can tune a baked-in config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration for the review orchestrator.
type Config struct {
	ListenPort      int           `yaml:"listen_port"`
	ExecutorURL     string        `yaml:"executor_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	UsersFile       string        `yaml:"users_file"`
	EnvFilesDir     string        `yaml:"env_files_dir"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
}

func defaults() Config {
	return Config{
		ListenPort:      8080,
		ExecutorURL:     "http://review-executor-service:8090",
		UsersFile:       "users.yaml",
		EnvFilesDir:     "envfiles",
		DispatchTimeout: 30 * time.Second,
		TokenTTL:        12 * time.Hour,
	}
}

// Load reads the YAML file at path (missing file is fine, defaults apply)
// and then applies environment overrides: PORT, EXECUTOR_URL, JWT_SECRET,
// USERS_FILE, ENV_FILES_DIR, DISPATCH_TIMEOUT, TOKEN_TTL.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.ListenPort = port
	}
	if v := os.Getenv("EXECUTOR_URL"); v != "" {
		c.ExecutorURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("USERS_FILE"); v != "" {
		c.UsersFile = v
	}
	if v := os.Getenv("ENV_FILES_DIR"); v != "" {
		c.EnvFilesDir = v
	}
	if v := os.Getenv("DISPATCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid DISPATCH_TIMEOUT %q: %w", v, err)
		}
		c.DispatchTimeout = d
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid TOKEN_TTL %q: %w", v, err)
		}
		c.TokenTTL = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("config: listen_port %d out of range", c.ListenPort)
	}
	if c.ExecutorURL == "" {
		return fmt.Errorf("config: executor_url is required")
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("config: dispatch_timeout must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token_ttl must be positive")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ListenPort)
}

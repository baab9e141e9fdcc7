// Package config loads CLI-wide defaults for the rill command from
// rill.yml/rill.yaml, falling back to environment variables and
// built-in defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the rill CLI's project-level configuration.
type Config struct {
	Timeout        TimeoutConfig        `mapstructure:"timeout"`
	AutoExceptions AutoExceptionsConfig `mapstructure:"auto_exceptions"`
	Server         ServerConfig         `mapstructure:"server"`
}

// TimeoutConfig sets the timeout, in milliseconds, that `rill run`
// applies to each closure or host-function invocation; 0 means none.
type TimeoutConfig struct {
	Ms int `mapstructure:"ms"`
}

// AutoExceptionsConfig lists string patterns that, when matched against
// a value flowing through a pipe chain, raise instead of passing
// through silently.
type AutoExceptionsConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

// ServerConfig configures the `rill serve` HTTP and MCP front ends.
type ServerConfig struct {
	Port    int      `mapstructure:"port"`
	Host    string   `mapstructure:"host"`
	Globals []string `mapstructure:"globals"`
}

// Load reads rill.yml or rill.yaml from the current directory.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("timeout.ms", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")

	v.SetConfigName("rill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// InProject reports whether the current directory (ancestors are not
// checked) looks like a rill project: a rill.yml/rill.yaml is present.
func InProject() bool {
	if _, err := os.Stat("rill.yml"); err == nil {
		return true
	}
	if _, err := os.Stat("rill.yaml"); err == nil {
		return true
	}
	return false
}

// GetProjectRoot walks up from the working directory looking for
// rill.yml/rill.yaml, returning the first directory that has one.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "rill.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "rill.yaml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a rill project (no rill.yml found)")
		}
		dir = parent
	}
}

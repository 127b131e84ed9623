// Package config provides configuration management for dfanalyze.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	// Output settings
	OutputFormat string `mapstructure:"output_format"`

	// FailOn is the lowest finding severity that causes a non-zero exit:
	// "info", "warning", "error" or "never".
	FailOn string `mapstructure:"fail_on"`

	// DisabledRules lists rule ids to skip.
	DisabledRules []string `mapstructure:"disabled_rules"`

	// Concurrency caps parallel rule evaluation; zero means one rule per
	// available CPU.
	Concurrency int `mapstructure:"concurrency"`

	Verbose bool `mapstructure:"verbose"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("output_format", "text")
	v.SetDefault("fail_on", "error")
	v.SetDefault("disabled_rules", []string{})
	v.SetDefault("concurrency", 0)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("DFANALYZE")
	v.AutomaticEnv()
	v.BindEnv("output_format", "DFANALYZE_OUTPUT_FORMAT")
	v.BindEnv("fail_on", "DFANALYZE_FAIL_ON")
	v.BindEnv("verbose", "DFANALYZE_VERBOSE")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".dfanalyze")
		v.SetConfigType("yaml")
		v.AddConfigPath(homeDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q: must be text, json or yaml", c.OutputFormat)
	}

	switch c.FailOn {
	case "info", "warning", "error", "never":
	default:
		return fmt.Errorf("invalid fail_on %q: must be info, warning, error or never", c.FailOn)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return filepath.Join(".")
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/go-go-golems/parley/pkg/providers"
)

const (
	DefaultListen    = ":8741"
	DefaultStorePath = "conversations"
	DefaultLogLevel  = "info"
)

// Config is the full runtime configuration, loaded from a YAML file with
// environment variable overrides.
type Config struct {
	Listen          string               `mapstructure:"listen" yaml:"listen"`
	StorePath       string               `mapstructure:"store-path" yaml:"store-path"`
	DefaultProvider string               `mapstructure:"default-provider" yaml:"default-provider"`
	LogLevel        string               `mapstructure:"log-level" yaml:"log-level"`
	LogFile         string               `mapstructure:"log-file" yaml:"log-file"`
	Providers       []providers.Settings `mapstructure:"providers" yaml:"providers"`
}

// Load reads the configuration from configPath, or from the default search
// paths when configPath is empty. A missing config file is not an error;
// defaults and environment variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", DefaultListen)
	v.SetDefault("store-path", DefaultStorePath)
	v.SetDefault("log-level", DefaultLogLevel)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.parley")
		v.AddConfigPath("/etc/parley")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			v.AddConfigPath(xdgConfigPath + "/parley")
		}
	}

	v.SetEnvPrefix("parley")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file not found; ignore error
	} else if err != nil {
		return nil, errors.Wrap(err, "could not read config file")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides fills in per-provider API keys from PARLEY_<ID>_API_KEY
// so that secrets can stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		envName := fmt.Sprintf("PARLEY_%s_API_KEY", strings.ToUpper(strings.ReplaceAll(p.ID, "-", "_")))
		if key := os.Getenv(envName); key != "" {
			p.APIKey = key
		}
	}
}

// Validate checks the configuration for internal consistency.
func (cfg *Config) Validate() error {
	if cfg.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if cfg.StorePath == "" {
		return errors.New("store path must not be empty")
	}

	seen := map[string]bool{}
	for _, p := range cfg.Providers {
		if p.ID == "" {
			return errors.New("provider id must not be empty")
		}
		if seen[p.ID] {
			return errors.Errorf("duplicate provider id %s", p.ID)
		}
		seen[p.ID] = true

		switch p.Kind {
		case providers.KindStructuredChat, providers.KindGenericCompletion:
		default:
			return errors.Errorf("provider %s: unknown kind %s", p.ID, p.Kind)
		}

		if p.Model == "" {
			return errors.Errorf("provider %s: model must not be empty", p.ID)
		}
		if p.Timeout < 0 {
			return errors.Errorf("provider %s: timeout must not be negative", p.ID)
		}
	}

	if cfg.DefaultProvider != "" && !seen[cfg.DefaultProvider] {
		return errors.Errorf("default provider %s is not configured", cfg.DefaultProvider)
	}
	if cfg.DefaultProvider == "" && len(cfg.Providers) > 0 {
		cfg.DefaultProvider = cfg.Providers[0].ID
	}

	return nil
}

package model

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ProviderConfig holds settings for the remote mailbox provider.
type ProviderConfig struct {
	// BaseURL is the root URL of the provider API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SyncConfig holds settings for the inbox synchronizer and the
// auto-generate retry loop.
type SyncConfig struct {
	// PollIntervalSec is how often (in seconds) the inbox is polled
	// while the home view is active.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// RetryBackoffSec is the fixed delay between auto-generate attempts.
	RetryBackoffSec int `mapstructure:"retry_backoff_sec" yaml:"retry_backoff_sec"`
}

// AddressConfig holds settings for generated addresses.
type AddressConfig struct {
	// NamespacePrefix is prepended to every generated local-part.
	NamespacePrefix string `mapstructure:"namespace_prefix" yaml:"namespace_prefix"`
}

// DisplayConfig holds UI preferences. Theme is the independent light/dark
// flag; an empty or unknown value means "not set" and defers to the
// terminal's background detection.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Address  AddressConfig  `mapstructure:"address" yaml:"address"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/gvail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "gvail", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Provider: ProviderConfig{BaseURL: "https://api.mail.tm"},
		Sync: SyncConfig{
			PollIntervalSec: 10,
			RetryBackoffSec: 2,
		},
		Address: AddressConfig{NamespacePrefix: "gvail_"},
		Display: DisplayConfig{Theme: ""},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing config file is never fatal; defaults apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("provider.base_url", "https://api.mail.tm")
	v.SetDefault("sync.poll_interval_sec", 10)
	v.SetDefault("sync.retry_backoff_sec", 2)
	v.SetDefault("address.namespace_prefix", "gvail_")
	v.SetDefault("display.theme", "")

	// A missing or unreadable config is "not set", never fatal: the
	// preferences it holds all have working defaults.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				log.Printf("config: ignoring unreadable %s: %v", path, err)
			}
		}
		return defaultAppConfig(), nil
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		log.Printf("config: ignoring malformed %s: %v", path, err)
		return defaultAppConfig(), nil
	}

	if cfg.Sync.PollIntervalSec <= 0 {
		cfg.Sync.PollIntervalSec = 10
	}
	if cfg.Sync.RetryBackoffSec <= 0 {
		cfg.Sync.RetryBackoffSec = 2
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("provider", cfg.Provider)
	v.Set("sync", cfg.Sync)
	v.Set("address", cfg.Address)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

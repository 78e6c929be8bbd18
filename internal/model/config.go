package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the grocery service HTTP API.
type APIConfig struct {
	// BaseURL is the root URL of the meal planner service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// CustomerID identifies the account whose lists are managed.
	CustomerID string `mapstructure:"customer_id" yaml:"customer_id"`
}

// CacheConfig holds query cache tuning knobs.
type CacheConfig struct {
	// StaleAfterSec is how long (in seconds) cached data is served
	// before it becomes eligible for background revalidation.
	StaleAfterSec int `mapstructure:"stale_after_sec" yaml:"stale_after_sec"`

	// RevalidateIntervalSec is how often the background revalidator
	// checks for stale queries.
	RevalidateIntervalSec int `mapstructure:"revalidate_interval_sec" yaml:"revalidate_interval_sec"`
}

// EmailImportConfig holds settings for importing shopping lists from
// an IMAP mailbox. The import is disabled when Host is empty.
type EmailImportConfig struct {
	Host          string `mapstructure:"host" yaml:"host"`
	Port          string `mapstructure:"port" yaml:"port"`
	Username      string `mapstructure:"username" yaml:"username"`
	TLS           bool   `mapstructure:"tls" yaml:"tls"`
	SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	WindowDays    int    `mapstructure:"window_days" yaml:"window_days"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API         APIConfig         `mapstructure:"api" yaml:"api"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	EmailImport EmailImportConfig `mapstructure:"email_import" yaml:"email_import"`
	Display     DisplayConfig     `mapstructure:"display" yaml:"display"`
	LogFile     string            `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/groceryplanner/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "groceryplanner", "config.yaml")
}

// defaultLogFile returns the default log file path next to the config.
func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "groceryplanner.log")
	}
	return filepath.Join(home, ".config", "groceryplanner", "groceryplanner.log")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Cache: CacheConfig{
			StaleAfterSec:         300,
			RevalidateIntervalSec: 60,
		},
		EmailImport: EmailImportConfig{
			Port:          "993",
			TLS:           true,
			SubjectPrefix: "Grocery:",
			WindowDays:    7,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		LogFile: defaultLogFile(),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("cache.stale_after_sec", 300)
	v.SetDefault("cache.revalidate_interval_sec", 60)
	v.SetDefault("email_import.port", "993")
	v.SetDefault("email_import.tls", true)
	v.SetDefault("email_import.subject_prefix", "Grocery:")
	v.SetDefault("email_import.window_days", 7)
	v.SetDefault("display.theme", "default")
	v.SetDefault("log_file", defaultLogFile())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
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

	v.Set("api", cfg.API)
	v.Set("cache", cfg.Cache)
	v.Set("email_import", cfg.EmailImport)
	v.Set("display", cfg.Display)
	v.Set("log_file", cfg.LogFile)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// Feed settings
	Relays           []string `mapstructure:"relays"`
	ReplayPath       string   `mapstructure:"replaypath"`
	DefaultRangeDays int      `mapstructure:"defaultrangedays"`

	// Viewer locale settings, captured once at startup
	Timezone string `mapstructure:"timezone"`
	Locale   string `mapstructure:"locale"`

	// File paths
	StoragePath  string `mapstructure:"storagepath"`
	KeystoreName string `mapstructure:"-"` // Derived from other settings

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "nostrlytics")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("relays", []string{})
		v.SetDefault("replaypath", "")
		v.SetDefault("defaultrangedays", 7)
		v.SetDefault("timezone", "Local")
		v.SetDefault("locale", "en")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)

		// Bind environment variables
		v.BindEnv("appname", "NSTRLY_APP_NAME")
		v.BindEnv("appport", "NSTRLY_APP_PORT")
		v.BindEnv("environment", "NSTRLY_ENV")
		v.BindEnv("loglevel", "NSTRLY_LOG_LEVEL")
		v.BindEnv("relays", "NSTRLY_RELAYS")
		v.BindEnv("replaypath", "NSTRLY_REPLAY_PATH")
		v.BindEnv("defaultrangedays", "NSTRLY_DEFAULT_RANGE_DAYS")
		v.BindEnv("timezone", "NSTRLY_TIMEZONE")
		v.BindEnv("locale", "NSTRLY_LOCALE")
		v.BindEnv("storagepath", "NSTRLY_STORAGE_PATH")
		v.BindEnv("logsdir", "NSTRLY_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "NSTRLY_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "NSTRLY_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "NSTRLY_LOGS_MAX_AGE_IN_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		// Validate
		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.KeystoreName = cfg.GetKeystorePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.DefaultRangeDays < 1 {
		return fmt.Errorf("invalid default range days: %d", c.DefaultRangeDays)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// Location resolves the configured timezone to a *time.Location
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// GetKeystorePath returns the appropriate keystore database path based on environment
func (c *Config) GetKeystorePath() string {
	if c.KeystoreName == "" {
		c.KeystoreName = filepath.Join(c.StoragePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.KeystoreName
}

// GetPort returns the HTTP server port
func (c *Config) GetPort() string {
	return c.AppPort
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// Package config loads and validates the pipeline configuration from a YAML
// file with LIFTCAST_-prefixed environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Tide    TideConfig    `mapstructure:"tide"`
	Weather WeatherConfig `mapstructure:"weather"`
	Model   ModelConfig   `mapstructure:"model"`
	Storage StorageConfig `mapstructure:"storage"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BridgeConfig identifies the bridge, its lift log, and the analysis window.
type BridgeConfig struct {
	LogPath   string  `mapstructure:"log_path"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	StartDate string  `mapstructure:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string  `mapstructure:"end_date"`   // YYYY-MM-DD, inclusive
}

// TideConfig holds NOAA CO-OPS API configuration.
type TideConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	Station string        `mapstructure:"station"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// WeatherConfig holds Open-Meteo archive API configuration.
type WeatherConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// ModelConfig holds the training and evaluation knobs.
type ModelConfig struct {
	TestFraction      float64 `mapstructure:"test_fraction"`
	SplitSeed         uint64  `mapstructure:"split_seed"`
	ImputeSeed        uint64  `mapstructure:"impute_seed"`
	ImportanceRepeats int     `mapstructure:"importance_repeats"`
	MaxIter           int     `mapstructure:"max_iter"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// OutputConfig controls where the rendered report goes.
type OutputConfig struct {
	HTMLPath   string `mapstructure:"html_path"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the file at path (optional when empty) and
// environment variables, returning the merged result.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("LIFTCAST")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bridge.log_path", "./data/lift_log.csv")
	v.SetDefault("bridge.latitude", 47.6029)
	v.SetDefault("bridge.longitude", -122.3335)
	v.SetDefault("bridge.start_date", "")
	v.SetDefault("bridge.end_date", "")

	v.SetDefault("tide.api_url", "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter")
	v.SetDefault("tide.station", "9447130")
	v.SetDefault("tide.timeout", "30s")
	v.SetDefault("tide.retries", 3)

	v.SetDefault("weather.api_url", "https://archive-api.open-meteo.com/v1/archive")
	v.SetDefault("weather.timeout", "30s")
	v.SetDefault("weather.retries", 3)

	v.SetDefault("model.test_fraction", 0.2)
	v.SetDefault("model.split_seed", 42)
	v.SetDefault("model.impute_seed", 42)
	v.SetDefault("model.importance_repeats", 30)
	v.SetDefault("model.max_iter", 500)

	v.SetDefault("storage.db_path", "./data/liftcast.db")

	v.SetDefault("output.html_path", "./liftcast_report.html")
	v.SetDefault("output.listen_addr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Bridge.LogPath == "" {
		return fmt.Errorf("bridge.log_path is required")
	}
	if c.Bridge.Latitude < -90 || c.Bridge.Latitude > 90 {
		return fmt.Errorf("bridge.latitude must be between -90 and 90")
	}
	if c.Bridge.Longitude < -180 || c.Bridge.Longitude > 180 {
		return fmt.Errorf("bridge.longitude must be between -180 and 180")
	}
	for _, d := range []struct{ name, val string }{
		{"bridge.start_date", c.Bridge.StartDate},
		{"bridge.end_date", c.Bridge.EndDate},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d.val); err != nil {
			return fmt.Errorf("%s must be formatted as YYYY-MM-DD", d.name)
		}
	}

	if c.Tide.APIURL == "" {
		return fmt.Errorf("tide.api_url is required")
	}
	if c.Tide.Station == "" {
		return fmt.Errorf("tide.station is required")
	}
	if c.Tide.Timeout < time.Second {
		return fmt.Errorf("tide.timeout must be at least 1 second")
	}
	if c.Tide.Retries < 0 {
		return fmt.Errorf("tide.retries must not be negative")
	}

	if c.Weather.APIURL == "" {
		return fmt.Errorf("weather.api_url is required")
	}
	if c.Weather.Timeout < time.Second {
		return fmt.Errorf("weather.timeout must be at least 1 second")
	}
	if c.Weather.Retries < 0 {
		return fmt.Errorf("weather.retries must not be negative")
	}

	if c.Model.TestFraction <= 0.0 || c.Model.TestFraction >= 1.0 {
		return fmt.Errorf("model.test_fraction must be between 0 and 1 exclusive")
	}
	if c.Model.ImportanceRepeats < 1 {
		return fmt.Errorf("model.importance_repeats must be at least 1")
	}
	if c.Model.MaxIter < 1 {
		return fmt.Errorf("model.max_iter must be at least 1")
	}

	if c.Output.HTMLPath == "" && c.Output.ListenAddr == "" {
		return fmt.Errorf("one of output.html_path or output.listen_addr is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

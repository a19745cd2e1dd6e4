// Package config loads the demandcast configuration from an optional yaml file, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
)

const (
	// FrequencyDaily is the only supported model frequency
	FrequencyDaily = "D"

	EnvPrefix = "DEMANDCAST"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete application configuration
type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Holiday HolidayConfig `mapstructure:"holiday"`
	Table   TableConfig   `mapstructure:"table"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ModelConfig configures the fitted forecast of every target
type ModelConfig struct {
	Frequency       string  `mapstructure:"frequency"`
	DefaultCoverage float64 `mapstructure:"default_coverage"`
	// Regularization of zero fits with ordinary least squares
	Regularization float64 `mapstructure:"regularization"`
	// Changepoints of zero fits a single trend
	Changepoints     int     `mapstructure:"changepoints"`
	ChangepointRange float64 `mapstructure:"changepoint_range"`
	Parallelization  int     `mapstructure:"parallelization"`
	ResidualWindow   int     `mapstructure:"residual_window"`
	OutlierPasses    int     `mapstructure:"outlier_passes"`
}

// HolidayConfig sizes the per year holiday memo
type HolidayConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// TableConfig configures parquet decoding
type TableConfig struct {
	// IndexColumn is used when the table carries no pandas index metadata
	IndexColumn string `mapstructure:"index_column"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Frequency:        FrequencyDaily,
			DefaultCoverage:  0.9,
			Regularization:   0.1,
			Changepoints:     25,
			ChangepointRange: 0.8,
			Parallelization:  4,
			ResidualWindow:   14,
			OutlierPasses:    0,
		},
		Holiday: HolidayConfig{
			CacheSize: 64,
		},
		Table: TableConfig{
			IndexColumn: "date",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stderr",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.Holiday.CacheSize <= 0 {
		return fmt.Errorf("holiday.cache_size must be positive, %w", ErrInvalidConfig)
	}
	return c.Logging.Validate()
}

// Validate validates model configuration
func (c *ModelConfig) Validate() error {
	if c.Frequency != FrequencyDaily {
		return fmt.Errorf("model.frequency %q is not supported, only %q, %w", c.Frequency, FrequencyDaily, ErrInvalidConfig)
	}
	if c.DefaultCoverage <= 0 || c.DefaultCoverage > 1 {
		return fmt.Errorf("model.default_coverage must be in (0, 1], %w", ErrInvalidConfig)
	}
	if c.Regularization < 0 {
		return fmt.Errorf("model.regularization must not be negative, %w", ErrInvalidConfig)
	}
	if c.Changepoints < 0 {
		return fmt.Errorf("model.changepoints must not be negative, %w", ErrInvalidConfig)
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		return fmt.Errorf("model.changepoint_range must be in (0, 1], %w", ErrInvalidConfig)
	}
	if c.Parallelization < 1 {
		return fmt.Errorf("model.parallelization must be at least 1, %w", ErrInvalidConfig)
	}
	if c.ResidualWindow < 2 {
		return fmt.Errorf("model.residual_window must be at least 2, %w", ErrInvalidConfig)
	}
	if c.OutlierPasses < 0 {
		return fmt.Errorf("model.outlier_passes must not be negative, %w", ErrInvalidConfig)
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, %w", ErrInvalidConfig)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', %w", ErrInvalidConfig)
	}
	return nil
}

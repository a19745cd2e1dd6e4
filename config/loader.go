package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file. An empty path searches the default locations and falls
// back to defaults when no file is found. Every key can be overridden by an environment variable
// such as DEMANDCAST_MODEL_DEFAULT_COVERAGE.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("demandcast")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/demandcast")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("model.frequency", def.Model.Frequency)
	v.SetDefault("model.default_coverage", def.Model.DefaultCoverage)
	v.SetDefault("model.regularization", def.Model.Regularization)
	v.SetDefault("model.changepoints", def.Model.Changepoints)
	v.SetDefault("model.changepoint_range", def.Model.ChangepointRange)
	v.SetDefault("model.parallelization", def.Model.Parallelization)
	v.SetDefault("model.residual_window", def.Model.ResidualWindow)
	v.SetDefault("model.outlier_passes", def.Model.OutlierPasses)

	v.SetDefault("holiday.cache_size", def.Holiday.CacheSize)

	v.SetDefault("table.index_column", def.Table.IndexColumn)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output_path", def.Logging.OutputPath)
}

func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

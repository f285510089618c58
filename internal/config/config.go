// Package config loads application configuration and initializes the
// global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input datasets.
type DataConfig struct {
	// Dir is the root of the raster datasets.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Boundaries is the admin-0 boundary layer (.shp or .fgb).
	Boundaries string `yaml:"boundaries" mapstructure:"boundaries"`
	// MasksDir holds the per-feature 1km mask rasters.
	MasksDir string `yaml:"masks_dir" mapstructure:"masks_dir"`
	// Manifest optionally replaces the built-in dataset variant list.
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
}

// ExtractConfig configures aggregation runs.
type ExtractConfig struct {
	// ResultsDir receives the output CSV tables.
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`
	// Workers bounds concurrent per-feature scans.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Precision is the number of decimal places in output cells.
	Precision int `yaml:"precision" mapstructure:"precision"`
}

// StoreConfig configures the optional results store.
type StoreConfig struct {
	// Path of the SQLite database; empty disables the store.
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.boundaries", "data/ne_10m_admin_0_countries/ne_10m_admin_0_countries.shp")
	v.SetDefault("data.masks_dir", "masks")
	v.SetDefault("extract.results_dir", "results")
	v.SetDefault("extract.workers", 1)
	v.SetDefault("extract.precision", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Package config loads the forecast-studio settings from a yaml file, environment variables and
// command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	forecaster "github.com/aouyang1/forecast-studio"
	"github.com/aouyang1/forecast-studio/forecast/options"
	"github.com/aouyang1/forecast-studio/pipeline"
	"github.com/spf13/viper"
)

const EnvPrefix = "FORECAST_STUDIO"

var (
	ErrInvalidLogLevel  = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat = errors.New("logging.format must be one of: text, json")
	ErrInvalidDelimiter = errors.New("ingest.delimiter must be a single character")
	ErrInvalidUploadMax = errors.New("server.max_upload_bytes must be positive")
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Forecast ForecastConfig `mapstructure:"forecast"`
}

// ServerConfig holds the http server configuration
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AssetsHost     string        `mapstructure:"assets_host"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IngestConfig describes the layout of uploaded files
type IngestConfig struct {
	Delimiter       string `mapstructure:"delimiter"`
	TimestampColumn string `mapstructure:"timestamp_column"`
	ValueColumn     string `mapstructure:"value_column"`
}

// ForecastConfig holds the model settings
type ForecastConfig struct {
	IntervalWidth    float64 `mapstructure:"interval_width"`
	Changepoints     int     `mapstructure:"changepoints"`
	ChangepointRange float64 `mapstructure:"changepoint_range"`
	Regularization   float64 `mapstructure:"regularization"`
	Yearly           string  `mapstructure:"yearly"`
	Weekly           string  `mapstructure:"weekly"`
	Daily            string  `mapstructure:"daily"`
	Holidays         string  `mapstructure:"holidays"`
	OutlierPasses    int     `mapstructure:"outlier_passes"`
	ResidualWindow   int     `mapstructure:"residual_window"`
}

// NewViper returns a viper instance with every default set and environment variables prefixed
// with FORECAST_STUDIO_ bound, e.g. FORECAST_STUDIO_SERVER_ADDR
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and unmarshals the result
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	defaults := forecaster.NewDefaultOptions()
	series := defaults.SeriesOptions

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.assets_host", "https://go-echarts.github.io/go-echarts-assets/assets/")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("ingest.delimiter", string(pipeline.DefaultDelimiter))
	v.SetDefault("ingest.timestamp_column", pipeline.DefaultTimestampColumn)
	v.SetDefault("ingest.value_column", pipeline.DefaultValueColumn)

	v.SetDefault("forecast.interval_width", defaults.IntervalWidth)
	v.SetDefault("forecast.changepoints", series.ChangepointOptions.AutoNumChangepoints)
	v.SetDefault("forecast.changepoint_range", series.ChangepointOptions.Range)
	v.SetDefault("forecast.regularization", series.Regularization)
	v.SetDefault("forecast.yearly", string(options.SeasonalityAuto))
	v.SetDefault("forecast.weekly", string(options.SeasonalityAuto))
	v.SetDefault("forecast.daily", string(options.SeasonalityAuto))
	v.SetDefault("forecast.holidays", "")
	v.SetDefault("forecast.outlier_passes", 0)
	v.SetDefault("forecast.residual_window", defaults.ResidualWindow)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.MaxUploadBytes <= 0 {
		return ErrInvalidUploadMax
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	if utf8.RuneCountInString(c.Ingest.Delimiter) != 1 {
		return ErrInvalidDelimiter
	}

	if _, err := c.ForecasterOptions(); err != nil {
		return fmt.Errorf("invalid forecast config, %w", err)
	}
	return nil
}

// IngestOptions returns the upload layout for the pipeline
func (c *Config) IngestOptions() pipeline.IngestOptions {
	delim, _ := utf8.DecodeRuneInString(c.Ingest.Delimiter)
	return pipeline.IngestOptions{
		Delimiter:       delim,
		TimestampColumn: c.Ingest.TimestampColumn,
		ValueColumn:     c.Ingest.ValueColumn,
	}
}

// ForecasterOptions converts the forecast settings into validated forecaster options
func (c *Config) ForecasterOptions() (*forecaster.Options, error) {
	opt := forecaster.NewDefaultOptions()
	opt.IntervalWidth = c.Forecast.IntervalWidth
	opt.ResidualWindow = c.Forecast.ResidualWindow

	series := opt.SeriesOptions
	series.ChangepointOptions.AutoNumChangepoints = c.Forecast.Changepoints
	series.ChangepointOptions.Range = c.Forecast.ChangepointRange
	series.Regularization = c.Forecast.Regularization
	series.EventOptions.Country = strings.ToUpper(c.Forecast.Holidays)

	modes := map[string]string{
		options.LabelSeasYearly: c.Forecast.Yearly,
		options.LabelSeasWeekly: c.Forecast.Weekly,
		options.LabelSeasDaily:  c.Forecast.Daily,
	}
	for i, seasCfg := range series.SeasonalityOptions.SeasonalityConfigs {
		mode, err := options.ParseSeasonalityMode(strings.ToLower(modes[seasCfg.Name]))
		if err != nil {
			return nil, fmt.Errorf("forecast.%s, %w", seasCfg.Name, err)
		}
		series.SeasonalityOptions.SeasonalityConfigs[i] = seasCfg.WithMode(mode)
	}

	if c.Forecast.OutlierPasses > 0 {
		opt.OutlierOptions = forecaster.NewOutlierOptions()
		opt.OutlierOptions.NumPasses = c.Forecast.OutlierPasses
	}

	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// NewLogger builds a slog logger writing to w with the configured level and format
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch c.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, ErrInvalidLogFormat
	}
	return slog.New(handler), nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, ErrInvalidLogLevel
}

// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/output"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. KONTOAUSZUG_LOG_LEVEL.
const EnvPrefix = "KONTOAUSZUG"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Output struct {
		Format    string `mapstructure:"format" yaml:"format"`
		OneLine   bool   `mapstructure:"one_line" yaml:"one_line"`
		Overwrite bool   `mapstructure:"overwrite" yaml:"overwrite"`
		DateField string `mapstructure:"date_field" yaml:"date_field"`
		MonthOnly bool   `mapstructure:"month_only" yaml:"month_only"`
	} `mapstructure:"output" yaml:"output"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Decoder struct {
		Strict bool `mapstructure:"strict" yaml:"strict"`
	} `mapstructure:"decoder" yaml:"decoder"`

	Batch struct {
		Workers  int  `mapstructure:"workers" yaml:"workers"`
		FailFast bool `mapstructure:"fail_fast" yaml:"fail_fast"`
	} `mapstructure:"batch" yaml:"batch"`

	Input struct {
		Prefix  string `mapstructure:"prefix" yaml:"prefix"`
		Recurse bool   `mapstructure:"recurse" yaml:"recurse"`
	} `mapstructure:"input" yaml:"input"`

	Server struct {
		Address     string `mapstructure:"address" yaml:"address"`
		BodyLimitMB int    `mapstructure:"body_limit_mb" yaml:"body_limit_mb"`
	} `mapstructure:"server" yaml:"server"`
}

// NewViper returns a Viper instance with defaults, config file locations and
// environment binding set up. An explicit configFile replaces the search
// path.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.kontoauszug")
		v.AddConfigPath(".kontoauszug")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// Load reads the optional config file into v, unmarshals and validates.
// A missing config file is fine; a broken one is an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// InitializeConfig loads the configuration from the default locations.
func InitializeConfig() (*Config, error) {
	return Load(NewViper(""))
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("output.format", string(output.FormatJSON))
	v.SetDefault("output.one_line", false)
	v.SetDefault("output.overwrite", false)
	v.SetDefault("output.date_field", string(output.DateFieldValue))
	v.SetDefault("output.month_only", false)

	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("decoder.strict", false)

	v.SetDefault("batch.workers", runtime.NumCPU())
	v.SetDefault("batch.fail_fast", false)

	v.SetDefault("input.prefix", "")
	v.SetDefault("input.recurse", false)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.body_limit_mb", 20)
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.Log.Format)
	}

	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	if _, err := output.ParseDateField(c.Output.DateField); err != nil {
		return err
	}

	if utf8.RuneCountInString(c.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", c.CSV.Delimiter)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got: %d", c.Batch.Workers)
	}

	if c.Server.BodyLimitMB < 1 {
		return fmt.Errorf("server.body_limit_mb must be at least 1, got: %d", c.Server.BodyLimitMB)
	}

	return nil
}

// CSVDelimiter returns the configured delimiter as a rune.
func (c *Config) CSVDelimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSV.Delimiter)
	return r
}

// NewLogger builds the application logger from the log settings.
func (c *Config) NewLogger() logging.Logger {
	return logging.NewLogrusAdapter(c.Log.Level, c.Log.Format)
}

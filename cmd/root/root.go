// Package root contains the root command for the application
package root

import (
	"fmt"

	"dbkr/kontoauszug-reader/internal/config"
	"dbkr/kontoauszug-reader/internal/container"
	"dbkr/kontoauszug-reader/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is the application version reported by --version and the API.
const Version = "1.1.0"

// FlagKeys maps command line flags to the configuration keys they override.
// Flags missing from a command's flag set are skipped.
var FlagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"format":        "output.format",
	"one-line":      "output.one_line",
	"csv-delimiter": "csv.delimiter",
	"strict":        "decoder.strict",
	"workers":       "batch.workers",
	"fail-fast":     "batch.fail_fast",
	"prefix":        "input.prefix",
	"recurse":       "input.recurse",
	"address":       "server.address",
}

var (
	configFile   string
	appContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "kontoauszug",
		Short: "Decode Deutsche Bank statement PDFs into JSON, CSV or YAML records.",
		Long: `kontoauszug reads Deutsche Bank "Kontoauszug" statement PDFs and decodes the
statement period and every booking line into machine-readable records.

Records go to stdout, to one file per statement, or into a year/month/day
directory tree.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: initialize,
	}
)

// Init registers the persistent flags. Call it once before adding
// subcommands.
func Init() {
	Cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default searches ./config.yaml, ./.kontoauszug, $HOME/.kontoauszug)")
	Cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	Cmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

func initialize(cmd *cobra.Command, _ []string) error {
	v := config.NewViper(configFile)
	if err := BindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	appContainer = c

	if used := v.ConfigFileUsed(); used != "" {
		c.GetLogger().Debug("Using config file", logging.F(logging.FieldFile, used))
	}
	return nil
}

// BindFlags binds every flag of flags that has a configuration key.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// GetLogger returns the configured logger, or a discarding one before
// initialization.
func GetLogger() logging.Logger {
	if appContainer == nil {
		return logging.NewDiscardLogger()
	}
	return appContainer.GetLogger()
}

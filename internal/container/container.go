// Package container wires the statement reader's components from the
// configuration. Every component receives its dependencies through its
// constructor; the container is the one place that knows how they fit.
package container

import (
	"errors"
	"io"

	"dbkr/kontoauszug-reader/internal/batch"
	"dbkr/kontoauszug-reader/internal/config"
	"dbkr/kontoauszug-reader/internal/dbparser"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/output"
	"dbkr/kontoauszug-reader/internal/pdfparser"
	"dbkr/kontoauszug-reader/internal/scanner"

	"github.com/spf13/afero"
)

// Container holds all application dependencies. It is immutable after
// creation.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	fs        afero.Fs
	extractor pdfparser.Extractor
	decoder   *dbparser.Decoder
	parser    *dbparser.Parser
	scanner   *scanner.StatementScanner
}

// Option overrides a default dependency, mostly for tests.
type Option func(*Container)

// WithFilesystem replaces the OS filesystem.
func WithFilesystem(fs afero.Fs) Option {
	return func(c *Container) { c.fs = fs }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(c *Container) { c.logger = logger }
}

// WithExtractor replaces the extension-based PDF/text extractor.
func WithExtractor(extractor pdfparser.Extractor) Option {
	return func(c *Container) { c.extractor = extractor }
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = cfg.NewLogger()
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.extractor == nil {
		c.extractor = pdfparser.NewAutoExtractor(c.fs, c.logger)
	}

	c.decoder = dbparser.NewDecoder(c.logger, dbparser.WithStrict(cfg.Decoder.Strict))
	c.parser = dbparser.NewParser(c.extractor, c.decoder, c.logger)
	c.scanner = scanner.NewStatementScanner(c.fs, scanner.Options{
		Prefix:  cfg.Input.Prefix,
		Recurse: cfg.Input.Recurse,
	}, c.logger)

	c.logger.Debug("Container initialized",
		logging.F("strict", cfg.Decoder.Strict),
		logging.F(logging.FieldWorkers, cfg.Batch.Workers))
	return c, nil
}

// OutputOptions returns router options filled from the configuration for
// the given mode. Callers adjust mode-specific fields such as BaseDir.
func (c *Container) OutputOptions(mode output.Mode) output.Options {
	format, _ := output.ParseFormat(c.config.Output.Format)
	dateField, _ := output.ParseDateField(c.config.Output.DateField)
	return output.Options{
		Mode:         mode,
		Format:       format,
		OneLine:      c.config.Output.OneLine,
		Overwrite:    c.config.Output.Overwrite,
		DateField:    dateField,
		MonthOnly:    c.config.Output.MonthOnly,
		CSVDelimiter: c.config.CSVDelimiter(),
	}
}

// NewRouter creates an output router writing through the container's
// filesystem.
func (c *Container) NewRouter(sink io.Writer, opts output.Options, routerOpts ...output.RouterOption) (*output.Router, error) {
	return output.NewRouter(c.fs, sink, opts, c.logger, routerOpts...)
}

// NewProcessor creates a batch processor feeding router.
func (c *Container) NewProcessor(router batch.BookingRouter) *batch.Processor {
	return batch.NewProcessor(c.parser, router, batch.Options{
		Workers:  c.config.Batch.Workers,
		FailFast: c.config.Batch.FailFast,
	}, c.logger)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetFS returns the filesystem all components read and write through.
func (c *Container) GetFS() afero.Fs {
	return c.fs
}

func (c *Container) GetExtractor() pdfparser.Extractor {
	return c.extractor
}

func (c *Container) GetDecoder() *dbparser.Decoder {
	return c.decoder
}

func (c *Container) GetParser() *dbparser.Parser {
	return c.parser
}

func (c *Container) GetScanner() *scanner.StatementScanner {
	return c.scanner
}

// Package api exposes the statement decoder over HTTP.
package api

import (
	"context"
	"time"

	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/pdfparser"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"
)

// Options configures a Server.
type Options struct {
	// BodyLimitMB caps request bodies, uploads included.
	BodyLimitMB int
	Version     string
	// Strict is the decoder default when a request does not say.
	Strict bool
}

// Server serves the decode API.
type Server struct {
	app       *fiber.App
	fs        afero.Fs
	extractor pdfparser.Extractor
	logger    logging.Logger
	opts      Options
}

// NewServer creates a Server. Uploaded documents are spooled to fs and
// read back through extractor.
func NewServer(fs afero.Fs, extractor pdfparser.Extractor, logger logging.Logger, opts Options) *Server {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 20
	}

	s := &Server{
		fs:        fs,
		extractor: extractor,
		logger:    logger,
		opts:      opts,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "kontoauszug-reader",
		BodyLimit:             opts.BodyLimitMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.logRequests)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/api/health", s.handleHealth)
	s.app.Post("/api/decode", s.handleDecode)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Starting decode API", logging.F("address", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("Handled request",
		logging.F("method", c.Method()),
		logging.F("path", c.Path()),
		logging.F("status", c.Response().StatusCode()),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return err
}

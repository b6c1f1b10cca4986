package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"dbkr/kontoauszug-reader/internal/dbparser"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/models"
	"dbkr/kontoauszug-reader/internal/parsererror"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
)

// defaultSourceName names documents posted as a raw text body.
const defaultSourceName = "request.txt"

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok", Version: s.opts.Version})
}

// handleDecode accepts either extracted statement text as the request body
// or a multipart upload in the "file" field. It answers with the Booking,
// or with its lines when lines=true, and 204 when no statement was found.
func (s *Server) handleDecode(c *fiber.Ctx) error {
	strict := c.QueryBool("strict", s.opts.Strict)
	decoder := dbparser.NewDecoder(s.logger, dbparser.WithStrict(strict))

	var (
		booking *models.Booking
		err     error
	)
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		booking, err = s.decodeUpload(c, decoder)
	} else {
		booking, err = s.decodeBody(c, decoder)
	}
	if err != nil {
		return err
	}

	if booking == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if !c.QueryBool("lines", false) {
		return c.JSON(booking)
	}

	name := booking.SourceName()
	lines := make([]models.BookingLine, 0, len(booking.Lines))
	for i, line := range booking.Lines {
		lines = append(lines, line.WithProvenance(name, i))
	}
	return c.JSON(lines)
}

func (s *Server) decodeBody(c *fiber.Ctx, decoder *dbparser.Decoder) (*models.Booking, error) {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "request body is empty; send statement text or a multipart 'file'")
	}
	name := c.Query("name", defaultSourceName)
	booking, err := decoder.DecodeReader(name, bytes.NewReader(body))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return booking, nil
}

func (s *Server) decodeUpload(c *fiber.Ctx, decoder *dbparser.Decoder) (*models.Booking, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "no file uploaded; use form field 'file'")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "only .pdf and .txt uploads are supported")
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	tmp, err := afero.TempFile(s.fs, "", "kontoauszug-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if rmErr := s.fs.Remove(tmpPath); rmErr != nil {
			s.logger.WithError(rmErr).Warn("Failed to remove spooled upload", logging.F(logging.FieldFile, tmpPath))
		}
	}()

	_, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}

	lines, err := s.extractor.ExtractLines(tmpPath)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(header.Filename, lines), nil
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	var extractionErr *parsererror.ExtractionError
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.As(err, &extractionErr):
		code = fiber.StatusUnprocessableEntity
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed", logging.F("path", c.Path()))
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

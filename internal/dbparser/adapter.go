package dbparser

import (
	"time"

	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/models"
	"dbkr/kontoauszug-reader/internal/pdfparser"
)

// Parser reads one statement document from disk and decodes it.
type Parser struct {
	extractor pdfparser.Extractor
	decoder   *Decoder
	logger    logging.Logger
}

// NewParser combines an extractor with a decoder.
func NewParser(extractor pdfparser.Extractor, decoder *Decoder, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if decoder == nil {
		decoder = NewDecoder(logger)
	}
	return &Parser{extractor: extractor, decoder: decoder, logger: logger}
}

// ParseFile extracts and decodes the document at path. A document without a
// statement header yields a nil Booking and no error. Extraction failures
// are returned as *parsererror.ExtractionError.
func (p *Parser) ParseFile(path string) (*models.Booking, error) {
	start := time.Now()
	log := p.logger.WithField(logging.FieldFile, path)

	lines, err := p.extractor.ExtractLines(path)
	if err != nil {
		log.WithError(err).Error("Failed to extract statement text")
		return nil, err
	}

	booking := p.decoder.Decode(path, lines)
	if booking == nil {
		log.Debug("No statement found in document")
		return nil, nil
	}

	log.Debug("Parsed statement",
		logging.F(logging.FieldCount, len(booking.Lines)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return booking, nil
}

// Decoder returns the decoder used for text input.
func (p *Parser) Decoder() *Decoder {
	return p.decoder
}

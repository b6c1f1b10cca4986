// Package pdfparser turns statement documents into the reading-order text
// lines the decoder consumes.
package pdfparser

import (
	"bufio"
	"fmt"
	"strings"

	"dbkr/kontoauszug-reader/internal/fileutils"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/parsererror"

	"github.com/spf13/afero"
)

// Extractor produces the text lines of one document in reading order.
// Implementations must be safe for concurrent use on different paths.
type Extractor interface {
	// ExtractLines returns the document's lines. Failures are reported as
	// *parsererror.ExtractionError.
	ExtractLines(path string) ([]string, error)
}

// TextExtractor reads an already extracted, newline-separated text file.
type TextExtractor struct {
	fs afero.Fs
}

// NewTextExtractor creates a TextExtractor reading from fs.
func NewTextExtractor(fs afero.Fs) *TextExtractor {
	return &TextExtractor{fs: fs}
}

func (e *TextExtractor) ExtractLines(path string) ([]string, error) {
	file, err := fileutils.OpenFile(e.fs, path)
	if err != nil {
		return nil, &parsererror.ExtractionError{FilePath: path, Err: err}
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, &parsererror.ExtractionError{FilePath: path, Err: err}
	}
	return lines, nil
}

// AutoExtractor picks the extractor by file extension: .txt files are read
// as text, everything else as PDF.
type AutoExtractor struct {
	pdf    Extractor
	text   Extractor
	logger logging.Logger
}

// NewAutoExtractor creates an AutoExtractor over fs.
func NewAutoExtractor(fs afero.Fs, logger logging.Logger) *AutoExtractor {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &AutoExtractor{
		pdf:    NewPDFExtractor(fs, logger),
		text:   NewTextExtractor(fs),
		logger: logger,
	}
}

func (e *AutoExtractor) ExtractLines(path string) ([]string, error) {
	if fileutils.HasExtension(path, ".txt") {
		e.logger.Debug("Reading pre-extracted text", logging.F(logging.FieldFile, path))
		return e.text.ExtractLines(path)
	}
	return e.pdf.ExtractLines(path)
}

// MockExtractor returns fixed lines per path. Paths not in Lines yield Err,
// or an ExtractionError when Err is nil.
type MockExtractor struct {
	Lines map[string][]string
	Err   error
}

// NewMockExtractor creates a MockExtractor with the given content.
func NewMockExtractor(lines map[string][]string) *MockExtractor {
	return &MockExtractor{Lines: lines}
}

func (e *MockExtractor) ExtractLines(path string) ([]string, error) {
	if lines, ok := e.Lines[path]; ok {
		return lines, nil
	}
	if e.Err != nil {
		return nil, e.Err
	}
	return nil, &parsererror.ExtractionError{
		FilePath: path,
		Err:      fmt.Errorf("no mock content"),
	}
}

// Package validation checks that input documents are what they claim to be
// before they reach a parser.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"dbkr/kontoauszug-reader/internal/parsererror"
)

// pdfSignature must appear within the first headerWindow bytes of a PDF.
var pdfSignature = []byte("%PDF-")

const headerWindow = 1024

// CheckPDFHeader reports an *parsererror.InvalidFormatError when r does not
// start like a PDF document. Leading junk before the signature is tolerated
// as long as the signature lies within the first kilobyte.
func CheckPDFHeader(r io.ReaderAt, path string) error {
	buf := make([]byte, headerWindow)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if n == 0 {
		return &parsererror.InvalidFormatError{FilePath: path, ExpectedFormat: "PDF", Msg: "file is empty"}
	}
	if !bytes.Contains(buf[:n], pdfSignature) {
		return &parsererror.InvalidFormatError{FilePath: path, ExpectedFormat: "PDF", Msg: "missing %PDF- signature"}
	}
	return nil
}

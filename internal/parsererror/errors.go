// Package parsererror defines the typed errors surfaced by extraction,
// decoding and configuration.
package parsererror

import "fmt"

// ExtractionError reports that a document's text could not be extracted.
// It is fatal for that one document only.
type ExtractionError struct {
	FilePath string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed for '%s': %v", e.FilePath, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid or contradictory option combination. It is
// raised before any document is processed.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.Option, e.Reason)
}

// DataExtractionError reports that a captured token could not be turned into
// a value, e.g. a date that does not exist in the calendar.
type DataExtractionError struct {
	FieldName string
	Value     string
	Reason    string
}

func (e *DataExtractionError) Error() string {
	return fmt.Sprintf("cannot extract %s from '%s': %s", e.FieldName, e.Value, e.Reason)
}

// InvalidFormatError reports an input that is neither a PDF nor a text file.
type InvalidFormatError struct {
	FilePath       string
	ExpectedFormat string
	Msg            string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

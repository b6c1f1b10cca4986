// Package output delivers decoded Bookings as serialized records: to a single
// stream, one file per document, or one file per booking line in a
// date-structured directory tree.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dbkr/kontoauszug-reader/internal/currencyutils"
	"dbkr/kontoauszug-reader/internal/models"
	"dbkr/kontoauszug-reader/internal/parsererror"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// Format is a record serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", &parsererror.ConfigError{
		Option: "format",
		Reason: fmt.Sprintf("unknown format '%s' (json, csv, yaml)", name),
	}
}

// Extension returns the file extension for records of this format.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatYAML:
		return ".yaml"
	default:
		return ".json"
	}
}

// csvRow is the flat CSV shape of one booking line. Booking-level columns
// are repeated on every row.
type csvRow struct {
	SourceFile       string      `csv:"pdf_file"`
	PeriodFrom       models.Date `csv:"from"`
	PeriodTo         models.Date `csv:"to"`
	SourceName       string      `csv:"pdf_name"`
	LineIndex        string      `csv:"pdf_line"`
	BookingDate      models.Date `csv:"buchung"`
	ValueDate        models.Date `csv:"valuta"`
	Description      string      `csv:"text"`
	AmountText       string      `csv:"amount"`
	AmountMinorUnits int64       `csv:"amount_ct"`
	AmountEUR        string      `csv:"amount_eur"`
}

func newCSVRow(b *models.Booking, line models.BookingLine) csvRow {
	row := csvRow{
		SourceName:       line.SourceName,
		BookingDate:      line.BookingDate,
		ValueDate:        line.ValueDate,
		Description:      line.Description,
		AmountText:       line.AmountText,
		AmountMinorUnits: line.AmountMinorUnits,
		AmountEUR:        currencyutils.ToDecimal(line.AmountMinorUnits).StringFixed(2),
	}
	if b != nil {
		row.SourceFile = b.SourceID
		row.PeriodFrom = b.PeriodFrom
		row.PeriodTo = b.PeriodTo
	}
	if line.LineIndex != nil {
		row.LineIndex = strconv.Itoa(int(*line.LineIndex))
	}
	return row
}

// recordWriter serializes records to one sink. It is not safe for
// concurrent use.
type recordWriter struct {
	w         io.Writer
	format    Format
	oneLine   bool
	delimiter rune

	csvHeaderDone bool
	yamlEncoder   *yaml.Encoder
}

func newRecordWriter(w io.Writer, format Format, oneLine bool, delimiter rune) *recordWriter {
	if delimiter == 0 {
		delimiter = ','
	}
	return &recordWriter{w: w, format: format, oneLine: oneLine, delimiter: delimiter}
}

// WriteBooking writes a whole Booking as one record. For CSV that is one
// row per line.
func (rw *recordWriter) WriteBooking(b *models.Booking) error {
	switch rw.format {
	case FormatCSV:
		rows := make([]csvRow, 0, len(b.Lines))
		for _, line := range b.Lines {
			rows = append(rows, newCSVRow(b, line))
		}
		return rw.writeCSV(rows)
	case FormatYAML:
		return rw.writeYAML(b)
	default:
		return rw.writeJSON(b)
	}
}

// WriteLine writes one booking line as one record.
func (rw *recordWriter) WriteLine(line models.BookingLine) error {
	switch rw.format {
	case FormatCSV:
		return rw.writeCSV([]csvRow{newCSVRow(nil, line)})
	case FormatYAML:
		return rw.writeYAML(line)
	default:
		return rw.writeJSON(line)
	}
}

// Close finishes the sink's framing. It does not close the underlying
// writer.
func (rw *recordWriter) Close() error {
	if rw.yamlEncoder != nil {
		return rw.yamlEncoder.Close()
	}
	return nil
}

func (rw *recordWriter) writeJSON(v interface{}) error {
	var (
		data []byte
		err  error
	)
	if rw.oneLine {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode JSON record: %w", err)
	}
	data = append(data, '\n')
	if _, err := rw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func (rw *recordWriter) writeYAML(v interface{}) error {
	if rw.yamlEncoder == nil {
		rw.yamlEncoder = yaml.NewEncoder(rw.w)
		rw.yamlEncoder.SetIndent(2)
	}
	if err := rw.yamlEncoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML record: %w", err)
	}
	return nil
}

func (rw *recordWriter) writeCSV(rows []csvRow) error {
	csvWriter := csv.NewWriter(rw.w)
	csvWriter.Comma = rw.delimiter
	safe := gocsv.NewSafeCSVWriter(csvWriter)

	var err error
	if rw.csvHeaderDone {
		err = gocsv.MarshalCSVWithoutHeaders(&rows, safe)
	} else {
		err = gocsv.MarshalCSV(&rows, safe)
	}
	if err != nil {
		return fmt.Errorf("failed to encode CSV records: %w", err)
	}
	rw.csvHeaderDone = true
	return nil
}

// Package models holds the decoded statement records: a Booking per statement
// document and its BookingLines.
package models

import (
	"path/filepath"
	"strconv"
	"strings"

	"dbkr/kontoauszug-reader/internal/textutils"
)

// Booking is the decoded content of one statement document. It is built by
// the decoder and must not be mutated once decoding has finished.
type Booking struct {
	// SourceID identifies the originating document, usually its path.
	SourceID   string        `json:"pdfFile" yaml:"pdfFile"`
	PeriodFrom Date          `json:"from" yaml:"from"`
	PeriodTo   Date          `json:"to" yaml:"to"`
	Lines      []BookingLine `json:"lines" yaml:"lines"`
}

// SourceName is the base name of SourceID.
func (b *Booking) SourceName() string {
	if b.SourceID == "" {
		return ""
	}
	return filepath.Base(b.SourceID)
}

// SourceStem is the base name of SourceID without its extension.
func (b *Booking) SourceStem() string {
	name := b.SourceName()
	if dot := strings.LastIndex(name, "."); dot > 0 {
		return name[:dot]
	}
	return name
}

// BookingLine is one transaction entry of a statement.
type BookingLine struct {
	// SourceName and LineIndex point back to the owning document. Only the
	// output router sets them, and only for line-level records.
	SourceName string    `json:"pdfName,omitempty" yaml:"pdfName,omitempty"`
	LineIndex  *Position `json:"pdfLine,omitempty,string" yaml:"pdfLine,omitempty"`

	BookingDate Date   `json:"buchung" yaml:"buchung"`
	ValueDate   Date   `json:"valuta" yaml:"valuta"`
	Description string `json:"text" yaml:"text"`

	// AmountText is the amount exactly as printed, e.g. "- 600,00".
	AmountText string `json:"amount" yaml:"amount"`
	// AmountMinorUnits is the same amount in cents.
	AmountMinorUnits int64 `json:"amountCt" yaml:"amountCt"`
}

// WithProvenance returns a copy of the line carrying its document name and
// position. The receiver is left untouched.
func (l BookingLine) WithProvenance(sourceName string, index int) BookingLine {
	pos := Position(index)
	l.SourceName = sourceName
	l.LineIndex = &pos
	return l
}

// Position is a line's zero-based index within its document. It is written
// as a quoted number in JSON and YAML alike.
type Position int

func (p Position) MarshalYAML() (interface{}, error) {
	return strconv.Itoa(int(p)), nil
}

// AppendText extends the description with one more fragment, separated by
// exactly one space.
func (l *BookingLine) AppendText(fragment string) {
	l.Description = textutils.JoinWithSpace(l.Description, fragment)
}

// DateFor returns the booking date when useBookingDate is set, the value date
// otherwise.
func (l *BookingLine) DateFor(useBookingDate bool) Date {
	if useBookingDate {
		return l.BookingDate
	}
	return l.ValueDate
}

// Package dbparser decodes the reading-order text of Deutsche Bank account
// statements ("Kontoauszug") into Bookings.
package dbparser

import (
	"regexp"
	"strings"
)

// LineKind is the shape of one text line.
type LineKind int

const (
	// PlainText is any line that matches none of the markers.
	PlainText LineKind = iota
	// Header is "Kontoauszug vom dd.mm.yyyy bis dd.mm.yyyy".
	Header
	// PageBreak is the vertical small print at the bottom of every page.
	PageBreak
	// TableStart is the booking table's column header.
	TableStart
	// EntryStart is the first line of a booking entry.
	EntryStart
	// StatementEnd follows the last booking line of the statement.
	StatementEnd
)

func (k LineKind) String() string {
	switch k {
	case Header:
		return "header"
	case PageBreak:
		return "page_break"
	case TableStart:
		return "table_start"
	case EntryStart:
		return "entry_start"
	case StatementEnd:
		return "statement_end"
	default:
		return "plain_text"
	}
}

const (
	tableStartText   = "Buchung Valuta Vorgang Soll Haben"
	statementEndText = "Filialnummer Kontonummer Neuer Saldo"
)

var (
	headerPattern = regexp.MustCompile(
		`^Kontoauszug vom (\d\d\.\d\d\.\d{4}) bis (\d\d\.\d\d\.\d{4})$`)
	pageBreakPattern = regexp.MustCompile(
		`^00\d{8,} / \d{8,} / \d{8,}$`)
	entryPattern = regexp.MustCompile(
		`^(\d\d\.\d\d\.) (\d\d\.\d\d\.) (.+) ([-+] \d+(?:\.\d+)*,\d\d)$`)
)

// HeaderFields are the captures of a Header line.
type HeaderFields struct {
	PeriodFrom string // dd.mm.yyyy
	PeriodTo   string // dd.mm.yyyy
}

// EntryFields are the captures of an EntryStart line.
type EntryFields struct {
	BookingDate string // dd.mm.
	ValueDate   string // dd.mm.
	Description string
	AmountText  string // e.g. "- 600,00"
}

// ClassifiedLine is a text line tagged with its shape. Header is set only for
// Header lines and Entry only for EntryStart lines.
type ClassifiedLine struct {
	Kind   LineKind
	Text   string
	Header *HeaderFields
	Entry  *EntryFields
}

// IsBlank reports whether the line carries no text at all.
func (c ClassifiedLine) IsBlank() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Classify matches one line against the statement markers. Matches are
// always against the whole line; trailing whitespace is ignored.
func Classify(line string) ClassifiedLine {
	text := strings.TrimRight(line, " \t\r")
	classified := ClassifiedLine{Kind: PlainText, Text: text}

	switch text {
	case tableStartText:
		classified.Kind = TableStart
		return classified
	case statementEndText:
		classified.Kind = StatementEnd
		return classified
	}

	if m := headerPattern.FindStringSubmatch(text); m != nil {
		classified.Kind = Header
		classified.Header = &HeaderFields{PeriodFrom: m[1], PeriodTo: m[2]}
		return classified
	}

	if pageBreakPattern.MatchString(text) {
		classified.Kind = PageBreak
		return classified
	}

	if m := entryPattern.FindStringSubmatch(text); m != nil {
		classified.Kind = EntryStart
		classified.Entry = &EntryFields{
			BookingDate: m[1],
			ValueDate:   m[2],
			Description: m[3],
			AmountText:  m[4],
		}
	}
	return classified
}

// AsPlainText downgrades a line to PlainText, dropping its captures. Used
// when a marker's captured values turn out to be unusable.
func (c ClassifiedLine) AsPlainText() ClassifiedLine {
	return ClassifiedLine{Kind: PlainText, Text: c.Text}
}

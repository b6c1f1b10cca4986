package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the dd.mm.yyyy layout used on the statements and in every
// serialized record.
const DateLayout = "02.01.2006"

// Date is a calendar day without time of day.
type Date struct {
	t time.Time
}

// NewDate builds a Date. Out-of-range values are normalized the way
// time.Date normalizes them; use ParseDate to validate untrusted input.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a dd.mm.yyyy string and rejects days that do not exist.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) Year() int          { return d.t.Year() }
func (d Date) Month() time.Month  { return d.t.Month() }
func (d Date) Day() int           { return d.t.Day() }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Time() time.Time    { return d.t }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// YearString, MonthString and DayString return the zero-padded parts used
// for directory and file names.
func (d Date) YearString() string  { return fmt.Sprintf("%04d", d.Year()) }
func (d Date) MonthString() string { return fmt.Sprintf("%02d", int(d.Month())) }
func (d Date) DayString() string   { return fmt.Sprintf("%02d", d.Day()) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML renders the date as its dd.mm.yyyy string.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// MarshalCSV implements gocsv's TypeMarshaller.
func (d Date) MarshalCSV() (string, error) {
	return d.String(), nil
}

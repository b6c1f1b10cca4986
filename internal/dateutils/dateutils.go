// Package dateutils completes the day/month-only dates printed in booking
// tables with the year of the statement period.
package dateutils

import (
	"regexp"
	"strconv"

	"dbkr/kontoauszug-reader/internal/models"
	"dbkr/kontoauszug-reader/internal/parsererror"
)

var partialDatePattern = regexp.MustCompile(`^\d\d\.\d\d\.$`)

// Period resolves partial dates against the statement period [From, To].
//
// The year is chosen by comparing the "mm." part of the token with the
// "mm." part of From as strings: a month at or after From's month belongs to
// From's year, an earlier one to To's year. This handles one year boundary
// inside a period; statements spanning more than that resolve incorrectly.
type Period struct {
	From models.Date
	To   models.Date
}

// Resolve turns a "dd.mm." token into a full date.
func (p Period) Resolve(token string) (models.Date, error) {
	if !partialDatePattern.MatchString(token) {
		return models.Date{}, &parsererror.DataExtractionError{
			FieldName: "date",
			Value:     token,
			Reason:    "expected dd.mm.",
		}
	}

	year := p.yearFor(token)
	date, err := models.ParseDate(token + strconv.Itoa(year))
	if err != nil {
		return models.Date{}, &parsererror.DataExtractionError{
			FieldName: "date",
			Value:     token,
			Reason:    err.Error(),
		}
	}
	return date, nil
}

func (p Period) yearFor(token string) int {
	tokenMonth := token[3:6]
	fromMonth := p.From.MonthString() + "."
	if fromMonth <= tokenMonth {
		return p.From.Year()
	}
	return p.To.Year()
}

// Package currencyutils converts the statement's localized amounts into
// integer minor units.
package currencyutils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of decimal places printed on statements.
const minorUnitExponent = 2

// separatorStripper removes the sign gap, thousands dots and decimal comma.
var separatorStripper = strings.NewReplacer(" ", "", ".", "", ",", "")

// NormalizeAmount converts a signed amount such as "- 1.234,56" into minor
// units (-123456).
//
// It simply drops spaces, dots and commas and parses what remains. That is
// only correct because statement amounts always carry exactly two decimal
// digits; it is not a general currency parser.
func NormalizeAmount(amountText string) (int64, error) {
	digits := separatorStripper.Replace(amountText)
	minor, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", amountText, err)
	}
	return minor, nil
}

// ToDecimal returns the minor units as a decimal in major units.
func ToDecimal(minorUnits int64) decimal.Decimal {
	return decimal.New(minorUnits, -minorUnitExponent)
}

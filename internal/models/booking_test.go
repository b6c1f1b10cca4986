package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleLine() BookingLine {
	return BookingLine{
		BookingDate:      NewDate(2018, time.January, 2),
		ValueDate:        NewDate(2017, time.December, 29),
		Description:      "SEPA Ueberweisung",
		AmountText:       "- 600,00",
		AmountMinorUnits: -60000,
	}
}

func TestBookingLine_JSONOmitsAbsentProvenance(t *testing.T) {
	data, err := json.Marshal(sampleLine())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"buchung": "02.01.2018",
		"valuta": "29.12.2017",
		"text": "SEPA Ueberweisung",
		"amount": "- 600,00",
		"amountCt": -60000
	}`, string(data))
}

func TestBookingLine_JSONWithProvenance(t *testing.T) {
	line := sampleLine().WithProvenance("Kontoauszug_2018_01.pdf", 0)

	data, err := json.Marshal(line)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "Kontoauszug_2018_01.pdf", fields["pdfName"])
	assert.Equal(t, "0", fields["pdfLine"])
}

func TestBookingLine_YAMLQuotesPosition(t *testing.T) {
	line := sampleLine().WithProvenance("Kontoauszug_2018_01.pdf", 0)

	data, err := yaml.Marshal(line)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pdfLine: "0"`)

	var fields map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &fields))
	assert.Equal(t, "0", fields["pdfLine"], "same type as in JSON")
}

func TestBookingLine_WithProvenanceLeavesReceiver(t *testing.T) {
	line := sampleLine()
	_ = line.WithProvenance("a.pdf", 3)

	assert.Empty(t, line.SourceName)
	assert.Nil(t, line.LineIndex)
}

func TestBookingLine_AppendText(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		fragment string
		expected string
	}{
		{name: "plain", start: "SEPA Ueberweisung", fragment: "Verwendungszweck Test", expected: "SEPA Ueberweisung Verwendungszweck Test"},
		{name: "surrounding whitespace", start: "SEPA ", fragment: "  Miete  ", expected: "SEPA Miete"},
		{name: "blank fragment ignored", start: "SEPA", fragment: "   ", expected: "SEPA"},
		{name: "empty start", start: "", fragment: "Miete", expected: "Miete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := BookingLine{Description: tt.start}
			line.AppendText(tt.fragment)
			assert.Equal(t, tt.expected, line.Description)
		})
	}
}

func TestBooking_SourceNames(t *testing.T) {
	b := Booking{SourceID: "/data/2018/Kontoauszug_vom_31.01.2018.pdf"}
	assert.Equal(t, "Kontoauszug_vom_31.01.2018.pdf", b.SourceName())
	assert.Equal(t, "Kontoauszug_vom_31.01.2018", b.SourceStem())

	assert.Equal(t, ".hidden", (&Booking{SourceID: ".hidden"}).SourceStem())
	assert.Empty(t, (&Booking{}).SourceName())
}

func TestBooking_YAML(t *testing.T) {
	b := Booking{
		SourceID:   "a.pdf",
		PeriodFrom: NewDate(2017, time.December, 29),
		PeriodTo:   NewDate(2018, time.January, 31),
		Lines:      []BookingLine{sampleLine()},
	}

	data, err := yaml.Marshal(&b)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "from: 29.12.2017")
	assert.Contains(t, out, "buchung: 02.01.2018")
	assert.NotContains(t, out, "pdfName")
}

func TestDate_ParseAndFormat(t *testing.T) {
	d, err := ParseDate("29.02.2016")
	require.NoError(t, err)
	assert.Equal(t, "2016", d.YearString())
	assert.Equal(t, "02", d.MonthString())
	assert.Equal(t, "29", d.DayString())
	assert.Equal(t, "29.02.2016", d.String())

	_, err = ParseDate("29.02.2017")
	assert.Error(t, err)

	_, err = ParseDate("2017-02-01")
	assert.Error(t, err)
}

func TestDate_JSONRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"31.01.2018"`), &d))
	assert.True(t, d.Equal(NewDate(2018, time.January, 31)))

	assert.Error(t, json.Unmarshal([]byte(`"31.02.2018"`), &d))
	assert.True(t, NewDate(2017, time.December, 29).Before(d))
}

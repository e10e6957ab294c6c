package models

// Identifier columns shared by every indicator table, in source order.
const (
	FieldProvinceState = "Province/State"
	FieldCountryRegion = "Country/Region"
	FieldLat           = "Lat"
	FieldLong          = "Long"
)

// IdentifierFields are the leading columns of a wide table. Date columns
// start right after them.
var IdentifierFields = []string{FieldProvinceState, FieldCountryRegion, FieldLat, FieldLong}

// CountryFieldIndex is the position of the national entity within IdentifierFields.
const CountryFieldIndex = 1

// RawTable is one wide-format indicator table: one row per region, one
// column per observation date holding a cumulative count.
type RawTable struct {
	Indicator Indicator
	Header    []string
	Rows      [][]string
}

// Tables groups the three indicator tables of one dataset load.
type Tables struct {
	Confirmed RawTable
	Deaths    RawTable
	Recovered RawTable
}

// Set stores table in the slot named by its indicator.
func (t *Tables) Set(table RawTable) {
	switch table.Indicator {
	case IndicatorConfirmed:
		t.Confirmed = table
	case IndicatorDeaths:
		t.Deaths = table
	case IndicatorRecovered:
		t.Recovered = table
	}
}

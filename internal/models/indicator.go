package models

import "strings"

type Indicator string

const (
	IndicatorConfirmed Indicator = "confirmed"
	IndicatorDeaths    Indicator = "deaths"
	IndicatorRecovered Indicator = "recovered"
)

// Indicators lists the three indicator tables in join order.
var Indicators = []Indicator{IndicatorConfirmed, IndicatorDeaths, IndicatorRecovered}

func ParseIndicator(s string) (Indicator, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed":
		return IndicatorConfirmed, true
	case "deaths", "death":
		return IndicatorDeaths, true
	case "recovered":
		return IndicatorRecovered, true
	default:
		return "", false
	}
}

func (i Indicator) String() string {
	return string(i)
}

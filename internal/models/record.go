package models

import "time"

// NormalizedRecord is one (country, date) observation summed across
// subnational regions.
type NormalizedRecord struct {
	Country       string    `json:"country"`
	Date          time.Time `json:"date"`
	Confirmed     int64     `json:"confirmed"`
	Deaths        int64     `json:"deaths"`
	Recovered     int64     `json:"recovered"`
	MortalityRate float64   `json:"mortality_rate"`
	RecoveryRate  float64   `json:"recovery_rate"`
}

// Rates returns deaths and recoveries as a percentage of confirmed cases.
// Both are 0 when confirmed is 0.
func Rates(confirmed, deaths, recovered int64) (mortality, recovery float64) {
	if confirmed == 0 {
		return 0, 0
	}
	c := float64(confirmed)
	return float64(deaths) / c * 100, float64(recovered) / c * 100
}

// NewRecord builds a record with its derived rates filled in.
func NewRecord(country string, date time.Time, confirmed, deaths, recovered int64) NormalizedRecord {
	mortality, recovery := Rates(confirmed, deaths, recovered)
	return NormalizedRecord{
		Country:       country,
		Date:          date,
		Confirmed:     confirmed,
		Deaths:        deaths,
		Recovered:     recovered,
		MortalityRate: mortality,
		RecoveryRate:  recovery,
	}
}

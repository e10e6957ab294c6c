package api

import "github.com/mr1hm/go-covid-forecast/internal/models"

// CountrySnapshot is a country's most recent observation, keyed for maps.
type CountrySnapshot struct {
	Country       string  `json:"country"`
	Date          string  `json:"date"`
	Confirmed     int64   `json:"confirmed"`
	Deaths        int64   `json:"deaths"`
	Recovered     int64   `json:"recovered"`
	MortalityRate float64 `json:"mortality_rate"`
	RecoveryRate  float64 `json:"recovery_rate"`
}

type LatestResponse struct {
	AsOf      string            `json:"as_of"`
	Countries []CountrySnapshot `json:"countries"`
}

func toLatest(ds *models.Dataset) LatestResponse {
	latest := ds.Latest()
	out := LatestResponse{
		Countries: make([]CountrySnapshot, 0, len(latest)),
	}
	if !ds.LastDate().IsZero() {
		out.AsOf = ds.LastDate().Format(dateLayout)
	}

	for _, r := range latest {
		out.Countries = append(out.Countries, CountrySnapshot{
			Country:       r.Country,
			Date:          r.Date.Format(dateLayout),
			Confirmed:     r.Confirmed,
			Deaths:        r.Deaths,
			Recovered:     r.Recovered,
			MortalityRate: r.MortalityRate,
			RecoveryRate:  r.RecoveryRate,
		})
	}
	return out
}

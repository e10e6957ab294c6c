// Package forecast fits a linear trend to a country's recent confirmed counts
// and extrapolates it over a fixed horizon.
package forecast

import (
	"errors"
	"sort"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

const (
	DefaultHorizon = 30
	// MinObservations is the fewest records a country needs before it is forecast.
	MinObservations = 30
	// WindowSize caps the fitting window to the most recent records.
	WindowSize = 90
)

var ErrInvalidHorizon = errors.New("forecast horizon must be positive")

// Forecast fits the trend for country over records and predicts horizon
// daily values past the last observed date. A country with fewer than
// MinObservations records yields a result flagged InsufficientData.
func Forecast(records []models.NormalizedRecord, country string, horizon int) (*models.ForecastResult, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}

	series := make([]models.NormalizedRecord, 0)
	for _, r := range records {
		if r.Country == country {
			series = append(series, r)
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	return forecastSeries(country, series, horizon)
}

// ForecastDataset is Forecast over a dataset's pre-sorted country index.
func ForecastDataset(ds *models.Dataset, country string, horizon int) (*models.ForecastResult, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}
	return forecastSeries(country, ds.Series(country), horizon)
}

// forecastSeries expects series ordered by date ascending.
func forecastSeries(country string, series []models.NormalizedRecord, horizon int) (*models.ForecastResult, error) {
	res := &models.ForecastResult{
		Country:      country,
		Horizon:      horizon,
		Observations: len(series),
	}
	if len(series) < MinObservations {
		res.InsufficientData = true
		return res, nil
	}

	window := series
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}

	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	for i, r := range window {
		xs[i] = float64(i)
		ys[i] = float64(r.Confirmed)
	}

	line, err := Fit(xs, ys)
	if err != nil {
		return nil, err
	}
	metrics := Evaluate(line, xs, ys)

	last := window[len(window)-1].Date
	res.Series = make([]models.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		res.Series[i] = models.ForecastPoint{
			Date:  last.AddDate(0, 0, i+1),
			Value: line.At(float64(len(window) + i)),
		}
	}

	res.WindowStart = window[0].Date
	res.WindowEnd = last
	res.Slope = line.Slope
	res.Intercept = line.Intercept
	res.Metrics = &metrics
	return res, nil
}

package forecast

import (
	"context"
	"sort"
	"sync"

	"github.com/mr1hm/go-covid-forecast/internal/models"
	"github.com/mr1hm/go-covid-forecast/internal/worker"
)

// Summary condenses one country's forecast for overview listings.
type Summary struct {
	Country          string             `json:"country"`
	Observations     int                `json:"observations"`
	InsufficientData bool               `json:"insufficient_data"`
	LastObserved     int64              `json:"last_observed"`
	FinalPredicted   float64            `json:"final_predicted"`
	GrowthPercent    float64            `json:"growth_percent"`
	Metrics          *models.FitMetrics `json:"fit_metrics,omitempty"`
}

// Summarize forecasts every country of ds on a pool of workers and returns
// the summaries ordered by country.
func Summarize(ctx context.Context, ds *models.Dataset, horizon, workers int) ([]Summary, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}

	countries := ds.Countries()
	var (
		mu        sync.Mutex
		summaries = make([]Summary, 0, len(countries))
	)

	processor := func(ctx context.Context, country string) error {
		series := ds.Series(country)
		res, err := forecastSeries(country, series, horizon)
		if err != nil {
			return err
		}
		s := summarize(res, series)

		mu.Lock()
		summaries = append(summaries, s)
		mu.Unlock()
		return nil
	}

	pool := worker.NewPool[string](workers, len(countries), processor)
	pool.Start(ctx)
	for _, c := range countries {
		pool.Submit(c)
	}
	if err := pool.Stop(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Country < summaries[j].Country
	})
	return summaries, nil
}

func summarize(res *models.ForecastResult, series []models.NormalizedRecord) Summary {
	s := Summary{
		Country:          res.Country,
		Observations:     res.Observations,
		InsufficientData: res.InsufficientData,
	}
	if len(series) > 0 {
		s.LastObserved = series[len(series)-1].Confirmed
	}
	if res.InsufficientData || len(res.Series) == 0 {
		return s
	}

	s.FinalPredicted = res.Series[len(res.Series)-1].Value
	s.GrowthPercent = GrowthPercent(s.LastObserved, s.FinalPredicted)
	s.Metrics = res.Metrics
	return s
}

// GrowthPercent is the relative change from last to predicted, 0 when last is 0.
func GrowthPercent(last int64, predicted float64) float64 {
	if last == 0 {
		return 0
	}
	return (predicted - float64(last)) / float64(last) * 100
}

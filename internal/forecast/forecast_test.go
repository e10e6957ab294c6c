package forecast

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-covid-forecast/internal/models"
	"github.com/mr1hm/go-covid-forecast/internal/normalize"
)

const tolerance = 1e-9

func linearSeries(country string, end time.Time, n int, f func(i int) int64) []models.NormalizedRecord {
	start := end.AddDate(0, 0, -(n - 1))
	recs := make([]models.NormalizedRecord, n)
	for i := 0; i < n; i++ {
		recs[i] = models.NewRecord(country, start.AddDate(0, 0, i), f(i), 0, 0)
	}
	return recs
}

func TestForecast_InsufficientDataBelowThreshold(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	recs := linearSeries("Smallland", end, MinObservations-1, func(i int) int64 { return int64(i) })

	res, err := Forecast(recs, "Smallland", DefaultHorizon)
	require.NoError(t, err)
	assert.True(t, res.InsufficientData)
	assert.Equal(t, MinObservations-1, res.Observations)
	assert.Empty(t, res.Series)
	assert.Nil(t, res.Metrics)
}

func TestForecast_ThresholdIsInclusive(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	recs := linearSeries("Smallland", end, MinObservations, func(i int) int64 { return int64(2 * i) })

	res, err := Forecast(recs, "Smallland", DefaultHorizon)
	require.NoError(t, err)
	assert.False(t, res.InsufficientData)
	assert.Len(t, res.Series, DefaultHorizon)
	require.NotNil(t, res.Metrics)
}

func TestForecast_UnknownCountryIsInsufficient(t *testing.T) {
	res, err := Forecast(nil, "Nowhere", DefaultHorizon)
	require.NoError(t, err)
	assert.True(t, res.InsufficientData)
	assert.Zero(t, res.Observations)
}

func TestForecast_ContiguousDates(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	recs := linearSeries("Freedonia", end, 90, func(i int) int64 { return int64(i * i) })

	res, err := Forecast(recs, "Freedonia", 30)
	require.NoError(t, err)
	require.Len(t, res.Series, 30)

	assert.Equal(t, "2021-04-01", res.Series[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2021-04-30", res.Series[29].Date.Format("2006-01-02"))
	for i := 1; i < len(res.Series); i++ {
		assert.Equal(t, res.Series[i-1].Date.AddDate(0, 0, 1), res.Series[i].Date)
	}
	assert.Equal(t, end, res.WindowEnd)
}

func TestForecast_PerfectLinearFit(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	recs := linearSeries("Linearia", end, 90, func(i int) int64 { return 100 + 5*int64(i) })

	res, err := Forecast(recs, "Linearia", 10)
	require.NoError(t, err)
	require.NotNil(t, res.Metrics)

	assert.InDelta(t, 1.0, res.Metrics.R2, tolerance)
	assert.InDelta(t, 0.0, res.Metrics.MAE, tolerance)
	assert.InDelta(t, 0.0, res.Metrics.RMSE, tolerance)
	assert.InDelta(t, 5.0, res.Slope, tolerance)
	assert.InDelta(t, 100.0, res.Intercept, tolerance)
	assert.InDelta(t, 100.0+5*90, res.Series[0].Value, 1e-6)
}

func TestForecast_UsesMostRecentWindow(t *testing.T) {
	end := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
	// flat for the first 30 days, then a clean line; only the line is in the window
	recs := linearSeries("Windowia", end, 120, func(i int) int64 {
		if i < 30 {
			return 999999
		}
		return 10 + 3*int64(i-30)
	})

	res, err := Forecast(recs, "Windowia", 5)
	require.NoError(t, err)
	assert.Equal(t, 120, res.Observations)
	assert.Equal(t, recs[30].Date, res.WindowStart)
	assert.InDelta(t, 3.0, res.Slope, tolerance)
	assert.InDelta(t, 1.0, res.Metrics.R2, tolerance)
}

func TestForecast_SortsUnorderedInputAndFiltersCountry(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	recs := linearSeries("Ordered", end, 40, func(i int) int64 { return 7 * int64(i) })
	recs = append(recs, linearSeries("Other", end, 40, func(i int) int64 { return 1 })...)
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}

	res, err := Forecast(recs, "Ordered", 3)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Observations)
	assert.InDelta(t, 7.0, res.Slope, tolerance)
	assert.Equal(t, end.AddDate(0, 0, 1), res.Series[0].Date)
}

func TestForecast_NegativePredictionsNotClamped(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	recs := linearSeries("Declinia", end, 30, func(i int) int64 { return 300 - 10*int64(i) })

	res, err := Forecast(recs, "Declinia", 30)
	require.NoError(t, err)
	last := res.Series[len(res.Series)-1].Value
	assert.Less(t, last, 0.0)
	assert.InDelta(t, 300.0-10*59, last, 1e-6)
}

func TestForecast_InvalidHorizon(t *testing.T) {
	for _, h := range []int{0, -1} {
		res, err := Forecast(nil, "X", h)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, ErrInvalidHorizon), "horizon %d", h)
	}
}

func TestForecast_Deterministic(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	recs := linearSeries("Repeatia", end, 60, func(i int) int64 { return int64(i*i%17 + i) })

	a, err := Forecast(recs, "Repeatia", 15)
	require.NoError(t, err)
	b, err := Forecast(recs, "Repeatia", 15)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluate_ConstantTarget(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{5, 5, 5, 5}

	line, err := Fit(xs, ys)
	require.NoError(t, err)
	m := Evaluate(line, xs, ys)
	assert.Equal(t, 1.0, m.R2)

	m = Evaluate(Line{Intercept: 4}, xs, ys)
	assert.Equal(t, 0.0, m.R2)
	assert.InDelta(t, 1.0, m.MAE, tolerance)
	assert.InDelta(t, 1.0, m.RMSE, tolerance)
}

func TestFit_Degenerate(t *testing.T) {
	_, err := Fit([]float64{1}, []float64{2})
	assert.ErrorIs(t, err, ErrDegenerateFit)

	_, err = Fit([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDegenerateFit)

	_, err = Fit([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrDegenerateFit)
}

func TestEndToEnd_Testland(t *testing.T) {
	const days = 95
	start := time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)

	hdr := []string{"Province/State", "Country/Region", "Lat", "Long"}
	confirmed := []string{"", "Testland", "10.0", "20.0"}
	deaths := []string{"", "Testland", "10.0", "20.0"}
	recovered := []string{"", "Testland", "10.0", "20.0"}
	for i := 0; i < days; i++ {
		hdr = append(hdr, start.AddDate(0, 0, i).Format("1/2/06"))
		confirmed = append(confirmed, strconv.Itoa(1000+10*i))
		deaths = append(deaths, strconv.Itoa(i))
		recovered = append(recovered, strconv.Itoa(5*i))
	}

	out, err := normalize.Normalize(
		models.RawTable{Indicator: models.IndicatorConfirmed, Header: hdr, Rows: [][]string{confirmed}},
		models.RawTable{Indicator: models.IndicatorDeaths, Header: hdr, Rows: [][]string{deaths}},
		models.RawTable{Indicator: models.IndicatorRecovered, Header: hdr, Rows: [][]string{recovered}},
	)
	require.NoError(t, err)
	require.Len(t, out.Records, days)
	assert.Zero(t, out.DroppedRows)

	res, err := Forecast(out.Records, "Testland", 30)
	require.NoError(t, err)
	require.Len(t, res.Series, 30)

	lastInput := float64(1000 + 10*(days-1))
	assert.InDelta(t, lastInput+10, res.Series[0].Value, 1e-6)
	assert.InDelta(t, 1.0, res.Metrics.R2, tolerance)
	assert.Equal(t, start.AddDate(0, 0, days), res.Series[0].Date)
}

func TestSummarize(t *testing.T) {
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	var recs []models.NormalizedRecord
	recs = append(recs, linearSeries("Beta", end, 50, func(i int) int64 { return 100 + 2*int64(i) })...)
	recs = append(recs, linearSeries("Alpha", end, 10, func(i int) int64 { return int64(i) })...)
	recs = append(recs, linearSeries("Gamma", end, 40, func(i int) int64 { return 0 })...)
	ds := models.NewDataset(recs)

	sums, err := Summarize(context.Background(), ds, 10, 3)
	require.NoError(t, err)
	require.Len(t, sums, 3)

	assert.Equal(t, "Alpha", sums[0].Country)
	assert.True(t, sums[0].InsufficientData)
	assert.Nil(t, sums[0].Metrics)
	assert.Equal(t, int64(9), sums[0].LastObserved)

	beta := sums[1]
	assert.Equal(t, "Beta", beta.Country)
	assert.Equal(t, int64(198), beta.LastObserved)
	assert.InDelta(t, 100+2*59.0, beta.FinalPredicted, 1e-6)
	assert.InDelta(t, (218.0-198.0)/198.0*100, beta.GrowthPercent, 1e-6)

	gamma := sums[2]
	assert.Zero(t, gamma.GrowthPercent)
	assert.Equal(t, 1.0, gamma.Metrics.R2)
}

func TestSummarize_InvalidHorizon(t *testing.T) {
	_, err := Summarize(context.Background(), models.NewDataset(nil), 0, 1)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

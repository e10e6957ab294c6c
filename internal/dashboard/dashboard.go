// Package dashboard renders the per-country HTML dashboard with go-echarts.
package dashboard

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mr1hm/go-covid-forecast/internal/forecast"
	"github.com/mr1hm/go-covid-forecast/internal/models"
)

const (
	DefaultCountry = "US"
	// BandFraction is the half-width of the display band drawn around forecasts.
	BandFraction = 0.10

	dateLayout = "2006-01-02"
	chartWidth = "1100px"
)

// Renderer builds dashboard pages for a fixed forecast horizon.
type Renderer struct {
	Horizon int
}

func New(horizon int) *Renderer {
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	return &Renderer{Horizon: horizon}
}

// PickCountry returns the requested country, or the default when it is empty.
// The default falls back to the first known country.
func PickCountry(ds *models.Dataset, requested string) string {
	if requested != "" {
		return requested
	}
	if ds.HasCountry(DefaultCountry) {
		return DefaultCountry
	}
	if cs := ds.Countries(); len(cs) > 0 {
		return cs[0]
	}
	return ""
}

// Render writes the page for country. The caller checks the country exists.
func (r *Renderer) Render(w io.Writer, ds *models.Dataset, country string) error {
	series := ds.Series(country)

	res, err := forecast.ForecastDataset(ds, country, r.Horizon)
	if err != nil {
		return fmt.Errorf("forecast %s: %w", country, err)
	}

	page := components.NewPage()
	page.PageTitle = "COVID-19 Dashboard with Forecasting"
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		CasesChart(country, series),
		RatesChart(country, series),
		ForecastChart(country, series, res),
		WorldMap(ds.Latest()),
	)

	return page.Render(w)
}

func baseOpts(title, subtitle, yName string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	}
}

func dates(series []models.NormalizedRecord) []string {
	out := make([]string, len(series))
	for i, r := range series {
		out[i] = r.Date.Format(dateLayout)
	}
	return out
}

func lineData[T any](values []T, value func(T) any) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: value(v)}
	}
	return out
}

// CasesChart plots cumulative confirmed, deaths and recovered counts.
func CasesChart(country string, series []models.NormalizedRecord) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOpts("COVID-19 Cases in "+country, "", "Number of Cases")...)

	line.SetXAxis(dates(series)).
		AddSeries("Confirmed", lineData(series, func(r models.NormalizedRecord) any { return r.Confirmed })).
		AddSeries("Deaths", lineData(series, func(r models.NormalizedRecord) any { return r.Deaths })).
		AddSeries("Recovered", lineData(series, func(r models.NormalizedRecord) any { return r.Recovered })).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// RatesChart plots mortality and recovery as percentages of confirmed cases.
func RatesChart(country string, series []models.NormalizedRecord) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOpts("COVID-19 Metrics in "+country, "", "Percentage")...)

	line.SetXAxis(dates(series)).
		AddSeries("Mortality Rate", lineData(series, func(r models.NormalizedRecord) any { return round(r.MortalityRate, 4) })).
		AddSeries("Recovery Rate", lineData(series, func(r models.NormalizedRecord) any { return round(r.RecoveryRate, 4) })).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// Band returns the lower and upper display bounds around each forecast value.
func Band(points []models.ForecastPoint, fraction float64) (lower, upper []float64) {
	lower = make([]float64, len(points))
	upper = make([]float64, len(points))
	for i, p := range points {
		lower[i] = p.Value * (1 - fraction)
		upper[i] = p.Value * (1 + fraction)
	}
	return lower, upper
}

// ForecastChart overlays the forecast and its band on the confirmed history.
// Series that do not cover a date carry "-" so echarts leaves a gap.
func ForecastChart(country string, series []models.NormalizedRecord, res *models.ForecastResult) *charts.Line {
	line := charts.NewLine()
	if res.InsufficientData {
		line.SetGlobalOptions(baseOpts("Not enough data for forecasting in "+country,
			"Not enough historical data for forecasting", "Number of Cases")...)
		line.SetXAxis(dates(series)).
			AddSeries("Confirmed", lineData(series, func(r models.NormalizedRecord) any { return r.Confirmed }))
		return line
	}

	line.SetGlobalOptions(baseOpts("COVID-19 Forecast for "+country, MetricsText(res, series), "Number of Cases")...)

	n, h := len(series), len(res.Series)
	axis := dates(series)
	history := make([]opts.LineData, n+h)
	predicted := make([]opts.LineData, n+h)
	lowerData := make([]opts.LineData, n+h)
	upperData := make([]opts.LineData, n+h)

	for i := range history {
		history[i] = opts.LineData{Value: "-"}
		predicted[i] = opts.LineData{Value: "-"}
		lowerData[i] = opts.LineData{Value: "-"}
		upperData[i] = opts.LineData{Value: "-"}
	}
	for i, r := range series {
		history[i] = opts.LineData{Value: r.Confirmed}
	}

	lower, upper := Band(res.Series, BandFraction)
	for i, p := range res.Series {
		axis = append(axis, p.Date.Format(dateLayout))
		predicted[n+i] = opts.LineData{Value: round(p.Value, 2)}
		lowerData[n+i] = opts.LineData{Value: round(lower[i], 2)}
		upperData[n+i] = opts.LineData{Value: round(upper[i], 2)}
	}

	band := charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: "rgba(0,100,80,0.6)"})
	line.SetXAxis(axis).
		AddSeries("Confirmed", history).
		AddSeries("Forecast", predicted).
		AddSeries("Lower bound", lowerData, band).
		AddSeries("Upper bound", upperData, band).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// MetricsText summarizes fit quality and the projected change.
func MetricsText(res *models.ForecastResult, series []models.NormalizedRecord) string {
	if res.InsufficientData || res.Metrics == nil || len(res.Series) == 0 {
		return "Not enough historical data for forecasting"
	}

	var current int64
	if len(series) > 0 {
		current = series[len(series)-1].Confirmed
	}
	final := res.Series[len(res.Series)-1].Value

	var b strings.Builder
	fmt.Fprintf(&b, "MAE: %.2f | RMSE: %.2f | R²: %.4f\n", res.Metrics.MAE, res.Metrics.RMSE, res.Metrics.R2)
	fmt.Fprintf(&b, "Current cases: %s | Predicted cases in %d days: %s | Predicted growth: %.1f%%",
		groupThousands(float64(current)), res.Horizon, groupThousands(final),
		forecast.GrowthPercent(current, final))
	return b.String()
}

// mapNames maps dataset country names to the names used by the echarts world map.
var mapNames = map[string]string{
	"US":                               "United States",
	"Korea, South":                     "Korea",
	"Taiwan*":                          "Taiwan",
	"Czechia":                          "Czech Rep.",
	"Congo (Kinshasa)":                 "Dem. Rep. Congo",
	"Congo (Brazzaville)":              "Congo",
	"Central African Republic":         "Central African Rep.",
	"South Sudan":                      "S. Sudan",
	"Bosnia and Herzegovina":           "Bosnia and Herz.",
	"Dominican Republic":               "Dominican Rep.",
	"Laos":                             "Lao PDR",
	"Burma":                            "Myanmar",
	"Cote d'Ivoire":                    "Côte d'Ivoire",
	"North Macedonia":                  "Macedonia",
	"Equatorial Guinea":                "Eq. Guinea",
	"Western Sahara":                   "W. Sahara",
	"Holy See":                         "Vatican",
	"West Bank and Gaza":               "Palestine",
	"Solomon Islands":                  "Solomon Is.",
	"Saint Vincent and the Grenadines": "St. Vin. and Gren.",
}

func MapName(country string) string {
	if name, ok := mapNames[country]; ok {
		return name
	}
	return country
}

// WorldMap shades countries by their latest confirmed count.
func WorldMap(latest []models.NormalizedRecord) *charts.Map {
	m := charts.NewMap()
	m.RegisterMapType("world")

	var peak int64
	data := make([]opts.MapData, 0, len(latest))
	for _, r := range latest {
		data = append(data, opts.MapData{Name: MapName(r.Country), Value: r.Confirmed})
		if r.Confirmed > peak {
			peak = r.Confirmed
		}
	}

	m.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "560px"}),
		charts.WithTitleOpts(opts.Title{Title: "Global COVID-19 Cases"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(peak),
			InRange:    &opts.VisualMapInRange{Color: []string{"#fee5d9", "#fcae91", "#fb6a4a", "#cb181d"}},
		}),
	)
	m.AddSeries("Confirmed", data)
	return m
}

func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// groupThousands formats v rounded to an integer with comma separators.
func groupThousands(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

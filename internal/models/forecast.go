package models

import "time"

type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// FitMetrics are in-sample fit quality measures over the fitting window.
type FitMetrics struct {
	MAE  float64 `json:"mean_absolute_error"`
	RMSE float64 `json:"root_mean_squared_error"`
	R2   float64 `json:"r_squared"`
}

// ForecastResult is the outcome of one forecast request. When
// InsufficientData is set, Series and Metrics are empty.
type ForecastResult struct {
	Country          string          `json:"country"`
	Horizon          int             `json:"horizon"`
	Observations     int             `json:"observations"`
	InsufficientData bool            `json:"insufficient_data"`
	WindowStart      time.Time       `json:"window_start,omitzero"`
	WindowEnd        time.Time       `json:"window_end,omitzero"`
	Slope            float64         `json:"slope"`
	Intercept        float64         `json:"intercept"`
	Series           []ForecastPoint `json:"series"`
	Metrics          *FitMetrics     `json:"fit_metrics,omitempty"`
}

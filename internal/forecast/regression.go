package forecast

import (
	"errors"
	"math"

	"github.com/mr1hm/go-covid-forecast/internal/models"
)

var ErrDegenerateFit = errors.New("cannot fit a line: need at least two distinct x values")

// Line is y = Intercept + Slope*x.
type Line struct {
	Slope     float64
	Intercept float64
}

func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// Fit returns the ordinary least squares line through (xs[i], ys[i]).
// Sums are taken around the means to keep large counts well conditioned.
func Fit(xs, ys []float64) (Line, error) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return Line{}, ErrDegenerateFit
	}

	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return Line{}, ErrDegenerateFit
	}

	slope := sxy / sxx
	return Line{Slope: slope, Intercept: meanY - slope*meanX}, nil
}

// Evaluate computes in-sample MAE, RMSE and R² of line against the points.
// A constant target scores R² 1 when fitted exactly and 0 otherwise.
func Evaluate(line Line, xs, ys []float64) models.FitMetrics {
	if len(xs) == 0 {
		return models.FitMetrics{}
	}

	n := float64(len(xs))
	var meanY float64
	for _, y := range ys {
		meanY += y
	}
	meanY /= n

	var absSum, ssRes, ssTot float64
	for i := range xs {
		resid := ys[i] - line.At(xs[i])
		absSum += math.Abs(resid)
		ssRes += resid * resid
		d := ys[i] - meanY
		ssTot += d * d
	}

	m := models.FitMetrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(ssRes / n),
	}
	switch {
	case ssTot != 0:
		m.R2 = 1 - ssRes/ssTot
	case ssRes == 0:
		m.R2 = 1
	default:
		m.R2 = 0
	}
	return m
}

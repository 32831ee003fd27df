package aggregator

import (
	"math"

	"github.com/pable/gridscout/internal/model"
)

// trendThreshold is the |correlation| above which a series counts as moving.
const trendThreshold = 0.1

// CalculateLinearTrend correlates values against their 1-based index.
// Fewer than two points or zero variance yields stable with correlation 0.
func CalculateLinearTrend(values []float64) model.TrendResult {
	stable := model.TrendResult{Direction: model.TrendStable}
	n := len(values)
	if n < 2 {
		return stable
	}

	var meanX, meanY float64
	for i, v := range values {
		meanX += float64(i + 1)
		meanY += v
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sxy, sxx, syy float64
	for i, v := range values {
		dx := float64(i+1) - meanX
		dy := v - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return stable
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) {
		return stable
	}
	r = math.Max(-1, math.Min(1, r))

	switch {
	case r > trendThreshold:
		return model.TrendResult{Direction: model.TrendImproving, Correlation: r}
	case r < -trendThreshold:
		return model.TrendResult{Direction: model.TrendDeclining, Correlation: r}
	default:
		return model.TrendResult{Direction: model.TrendStable, Correlation: r}
	}
}

// CalculateConsistency maps the coefficient of variation of values to
// 1/(1+CV). An empty list or a zero mean scores 0.
func CalculateConsistency(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	cv := math.Sqrt(variance) / math.Abs(mean)
	return 1 / (1 + cv)
}

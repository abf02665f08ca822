package trend

import "math"

// Regression is an ordinary least-squares fit of value against elapsed days.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"rSquared"`
}

// LinearRegression fits points using days since the first point as x. It
// returns nil for fewer than two points, constant values, or a non-finite fit.
func LinearRegression(points []Point) *Regression {
	if len(points) < 2 {
		return nil
	}
	n := float64(len(points))
	xs := make([]float64, len(points))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := daysBetween(points[0].Date, p.Date)
		xs[i] = x
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return nil
	}
	slope := (n*sumXY - sumX*sumY) / den
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return nil
	}
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, p := range points {
		d := p.Value - meanY
		ssTot += d * d
		r := p.Value - (slope*xs[i] + intercept)
		ssRes += r * r
	}
	if ssTot == 0 {
		return nil
	}
	return &Regression{Slope: slope, Intercept: intercept, RSquared: 1 - ssRes/ssTot}
}

// HasEnoughDataForTrend requires seven points spanning at least six days.
func HasEnoughDataForTrend(points []Point) bool {
	if len(points) < MinTrendPoints {
		return false
	}
	return daysBetween(points[0].Date, points[len(points)-1].Date) >= MinTrendSpanDays
}

// Package stats contains descriptive statistics over activity records.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Summary describes a numeric sample. StdDev is the population standard deviation.
type Summary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// Summarize computes a Summary, or nil for an empty sample.
func Summarize(values []float64) *Summary {
	if len(values) == 0 {
		return nil
	}
	sorted := sortedCopy(values)
	n := float64(len(sorted))

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}

	return &Summary{
		Count:  len(sorted),
		Sum:    sum,
		Mean:   mean,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(sq / n),
		Q1:     percentileSorted(sorted, 25),
		Q3:     percentileSorted(sorted, 75),
	}
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between closest ranks. It panics if p is out of range and returns NaN for an
// empty sample.
func Percentile(values []float64, p float64) float64 {
	if p < 0 || p > 100 || math.IsNaN(p) {
		panic(fmt.Sprintf("stats: percentile %v out of range [0, 100]", p))
	}
	if len(values) == 0 {
		return math.NaN()
	}
	return percentileSorted(sortedCopy(values), p)
}

// MeanStdDev returns the mean and population standard deviation of values.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	n := float64(len(values))
	for _, v := range values {
		mean += v
	}
	mean /= n
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

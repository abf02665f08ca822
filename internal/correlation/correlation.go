// Package correlation relates activities to each other and flags outlying records.
package correlation

import (
	"math"
	"sort"

	"github.com/verte-zerg/babylog/internal/model"
	"github.com/verte-zerg/babylog/internal/trend"
)

// MinCorrelationDays is the number of aligned days needed for a correlation.
const MinCorrelationDays = 7

// Strength buckets the absolute correlation coefficient.
type Strength string

const (
	VeryWeak   Strength = "very_weak"
	Weak       Strength = "weak"
	Moderate   Strength = "moderate"
	Strong     Strength = "strong"
	VeryStrong Strength = "very_strong"
)

// Direction is the sign of a correlation.
type Direction string

const (
	Positive Direction = "positive"
	Negative Direction = "negative"
	None     Direction = "none"
)

// Result is the correlation between the daily frequencies of two activities.
type Result struct {
	ActivityA   model.ActivityType `json:"activityA"`
	ActivityB   model.ActivityType `json:"activityB"`
	Coefficient float64            `json:"coefficient"`
	Strength    Strength           `json:"strength"`
	Direction   Direction          `json:"direction"`
	SampleSize  int                `json:"sampleSize"`
}

// Pearson returns the correlation coefficient of x and y. ok is false when
// the lengths differ, fewer than two pairs exist, or either side has no variance.
func Pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n
	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	den := math.Sqrt(varX * varY)
	if den == 0 {
		return 0, false
	}
	return cov / den, true
}

// ClassifyStrength buckets |r|.
func ClassifyStrength(r float64) Strength {
	a := math.Abs(r)
	switch {
	case a < 0.2:
		return VeryWeak
	case a < 0.4:
		return Weak
	case a < 0.6:
		return Moderate
	case a < 0.8:
		return Strong
	default:
		return VeryStrong
	}
}

// ClassifyDirection returns None for |r| < 0.1, otherwise the sign of r.
func ClassifyDirection(r float64) Direction {
	switch {
	case math.Abs(r) < 0.1:
		return None
	case r > 0:
		return Positive
	default:
		return Negative
	}
}

// ActivityCorrelation correlates daily counts of a and b over every day on
// which either occurs. It returns nil below MinCorrelationDays or when the
// coefficient is undefined.
func ActivityCorrelation(records []model.Record, a, b model.ActivityType) *Result {
	groups := trend.GroupByCalendarDate(records)
	var xs, ys []float64
	for _, k := range trend.SortedKeys(groups) {
		var ca, cb float64
		for _, r := range groups[k] {
			switch r.ActivityType {
			case a:
				ca++
			case b:
				cb++
			}
		}
		if ca == 0 && cb == 0 {
			continue
		}
		xs = append(xs, ca)
		ys = append(ys, cb)
	}
	if len(xs) < MinCorrelationDays {
		return nil
	}
	r, ok := Pearson(xs, ys)
	if !ok {
		return nil
	}
	return &Result{
		ActivityA:   a,
		ActivityB:   b,
		Coefficient: r,
		Strength:    ClassifyStrength(r),
		Direction:   ClassifyDirection(r),
		SampleSize:  len(xs),
	}
}

// AllPairwiseCorrelations correlates every unordered pair of activities,
// strongest first.
func AllPairwiseCorrelations(records []model.Record, activities []model.ActivityType) []Result {
	var out []Result
	for i := 0; i < len(activities); i++ {
		for j := i + 1; j < len(activities); j++ {
			if res := ActivityCorrelation(records, activities[i], activities[j]); res != nil {
				out = append(out, *res)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Coefficient) > math.Abs(out[j].Coefficient)
	})
	return out
}

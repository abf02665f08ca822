package trend

import (
	"math"
	"sort"

	"github.com/verte-zerg/babylog/internal/model"
)

const (
	// DefaultThreshold is the slope magnitude below which a trend is stable.
	DefaultThreshold = 0.01
	MinTrendPoints   = 7
	MinTrendSpanDays = 6
)

// Direction of a fitted trend.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Significance of a fitted trend.
type Significance string

const (
	SignificanceLow    Significance = "low"
	SignificanceMedium Significance = "medium"
	SignificanceHigh   Significance = "high"
)

// Analysis is the trend of one metric of one activity. Magnitude is the slope
// per day and Confidence is R².
type Analysis struct {
	ActivityType  model.ActivityType `json:"activityType"`
	Metric        model.Metric       `json:"metric"`
	Direction     Direction          `json:"direction"`
	Magnitude     float64            `json:"magnitude"`
	Confidence    float64            `json:"confidence"`
	Significance  Significance       `json:"significance"`
	HasEnoughData bool               `json:"hasEnoughData"`
	Points        []Point            `json:"points"`
	Regression    *Regression        `json:"regression,omitempty"`
}

// ClassifyDirection maps a slope to a direction.
func ClassifyDirection(slope, threshold float64) Direction {
	switch {
	case math.Abs(slope) < threshold:
		return Stable
	case slope > 0:
		return Increasing
	default:
		return Decreasing
	}
}

// ClassifySignificance grades a trend by effect size and fit quality.
func ClassifySignificance(magnitude, confidence float64) Significance {
	m := math.Abs(magnitude)
	switch {
	case confidence >= 0.7 && m >= 0.5:
		return SignificanceHigh
	case confidence >= 0.5 || m >= 0.3:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}

// Analyzer runs trend analyses with a configurable stability threshold.
type Analyzer struct {
	Threshold float64
}

// NewAnalyzer returns an Analyzer; a non-positive threshold uses DefaultThreshold.
func NewAnalyzer(threshold float64) Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Analyzer{Threshold: threshold}
}

// Frequency analyses the daily count of activity.
func (an Analyzer) Frequency(records []model.Record, activity model.ActivityType) Analysis {
	return an.analyze(activity, model.MetricFrequency, DailyFrequency(records, activity))
}

// Metric analyses the daily average of a duration or quantity.
func (an Analyzer) Metric(records []model.Record, activity model.ActivityType, metric model.Metric) Analysis {
	if metric == model.MetricFrequency {
		return an.Frequency(records, activity)
	}
	return an.analyze(activity, metric, DailyAggregate(records, activity, metric, AggregateAverage))
}

// All returns the frequency trend plus duration and quantity trends when any
// record of activity carries those fields.
func (an Analyzer) All(records []model.Record, activity model.ActivityType) []Analysis {
	out := []Analysis{an.Frequency(records, activity)}
	var hasDuration, hasQuantity bool
	for _, r := range records {
		if r.ActivityType != activity {
			continue
		}
		hasDuration = hasDuration || r.Duration != nil
		hasQuantity = hasQuantity || r.Quantity != nil
	}
	if hasDuration {
		out = append(out, an.Metric(records, activity, model.MetricDuration))
	}
	if hasQuantity {
		out = append(out, an.Metric(records, activity, model.MetricQuantity))
	}
	return out
}

func (an Analyzer) analyze(activity model.ActivityType, metric model.Metric, points []Point) Analysis {
	out := Analysis{
		ActivityType: activity,
		Metric:       metric,
		Direction:    Stable,
		Significance: SignificanceLow,
		Points:       points,
	}
	if !HasEnoughDataForTrend(points) {
		return out
	}
	out.HasEnoughData = true
	reg := LinearRegression(points)
	if reg == nil {
		// Constant series: enough data, nothing to fit.
		return out
	}
	out.Regression = reg
	out.Magnitude = reg.Slope
	out.Confidence = reg.RSquared
	out.Direction = ClassifyDirection(reg.Slope, an.Threshold)
	out.Significance = ClassifySignificance(reg.Slope, reg.RSquared)
	return out
}

var defaultAnalyzer = NewAnalyzer(DefaultThreshold)

// AnalyzeFrequencyTrend analyses daily frequency with the default threshold.
func AnalyzeFrequencyTrend(records []model.Record, activity model.ActivityType) Analysis {
	return defaultAnalyzer.Frequency(records, activity)
}

// AnalyzeMetricTrend analyses a daily averaged metric with the default threshold.
func AnalyzeMetricTrend(records []model.Record, activity model.ActivityType, metric model.Metric) Analysis {
	return defaultAnalyzer.Metric(records, activity, metric)
}

// AnalyzeAllTrends runs every applicable trend with the default threshold.
func AnalyzeAllTrends(records []model.Record, activity model.ActivityType) []Analysis {
	return defaultAnalyzer.All(records, activity)
}

// SignificantTrends keeps medium and high trends, highest confidence first.
func SignificantTrends(trends []Analysis) []Analysis {
	out := make([]Analysis, 0, len(trends))
	for _, t := range trends {
		if t.Significance == SignificanceMedium || t.Significance == SignificanceHigh {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
